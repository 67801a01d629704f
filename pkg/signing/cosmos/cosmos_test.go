package cosmos

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"

	bankv1beta1 "cosmossdk.io/api/cosmos/bank/v1beta1"
	basev1beta1 "cosmossdk.io/api/cosmos/base/v1beta1"
	secp256k1pk "cosmossdk.io/api/cosmos/crypto/secp256k1"
	signingv1beta1 "cosmossdk.io/api/cosmos/tx/signing/v1beta1"
	txv1beta1 "cosmossdk.io/api/cosmos/tx/v1beta1"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

const msgSendAmino = `{"value":{"to_address":"cosmos1to","from_address":"cosmos1from","amount":[{"denom":"uatom","amount":"1000"}]},"type":"cosmos-sdk/MsgSend"}`

func testSecpKey(t *testing.T) (*btcec.PrivateKey, []byte, string) {
	t.Helper()
	seed := sha256.Sum256([]byte("cosmos-signer"))
	priv, pub := btcec.PrivKeyFromBytes(seed[:])
	compressed := pub.SerializeCompressed()
	addr, err := address.NewCosmosGenerator("cosmos").PubKeyToAddress(compressed)
	require.NoError(t, err)
	return priv, compressed, addr
}

func msgSend(t *testing.T) Message {
	value, err := proto.Marshal(&bankv1beta1.MsgSend{
		FromAddress: "cosmos1from",
		ToAddress:   "cosmos1to",
		Amount:      []*basev1beta1.Coin{{Denom: "uatom", Amount: "1000"}},
	})
	require.NoError(t, err)
	return Message{
		TypeURL:   "/cosmos.bank.v1beta1.MsgSend",
		Value:     value,
		AminoJSON: []byte(msgSendAmino),
	}
}

func newTx(t *testing.T, mode SignMode) *UnsignedTransaction {
	_, pub, addr := testSecpKey(t)
	return &UnsignedTransaction{
		ChainID:  "cosmoshub-4",
		Messages: []Message{msgSend(t)},
		Fee: Fee{
			Amount:   []Coin{{Denom: "uatom", Amount: "5000"}},
			GasLimit: 200000,
		},
		Memo:     "hi",
		SignMode: mode,
		Signer: Signer{
			AccountNumber: 7,
			Sequence:      3,
			PublicKey:     pub,
			Address:       addr,
		},
	}
}

// signSecp 模拟外部签名器: 对 SHA-256(sign bytes) 做 ECDSA，返回 64 字节 r||s
func signSecp(t *testing.T, priv *btcec.PrivateKey, p signing.PreImageHash) []byte {
	t.Helper()
	compact, err := crypto_util.DERToCompact(ecdsa.Sign(priv, p.Hash[:]).Serialize())
	require.NoError(t, err)
	return compact
}

func TestTxBodyWireFormat(t *testing.T) {
	tx := &UnsignedTransaction{
		ChainID:       "c",
		Messages:      []Message{{TypeURL: "/a", Value: []byte{0x01}}},
		Memo:          "m",
		TimeoutHeight: 5,
		SignMode:      SignModeDirect,
	}
	body, auth, err := tx.encode()
	require.NoError(t, err)

	// TxBody{messages=1 (Any{type_url=1, value=2}), memo=2, timeout_height=3}
	assert.Equal(t, "0a070a022f6112010112016d1805", hex.EncodeToString(body))

	// AuthInfo{signer_infos=1 {mode_info=2 {single=1 {mode=1}}}, fee=2 {}}
	assert.Equal(t, "0a0612040a0208011200", hex.EncodeToString(auth))
}

func TestDirectRoundTrip(t *testing.T) {
	tx := newTx(t, SignModeDirect)
	priv, pub, _ := testSecpKey(t)

	hashes, err := tx.PreImages()
	require.NoError(t, err)
	require.Len(t, hashes, 1)

	compiled, err := Compile(tx, []signing.ExternalSignature{{Signature: signSecp(t, priv, hashes[0]), PublicKey: pub}})
	require.NoError(t, err)

	var raw txv1beta1.TxRaw
	require.NoError(t, proto.Unmarshal(compiled.RawTx, &raw))
	require.Len(t, raw.Signatures, 1)
	assert.Equal(t, compiled.Signature, raw.Signatures[0])

	var body txv1beta1.TxBody
	require.NoError(t, proto.Unmarshal(raw.BodyBytes, &body))
	assert.Equal(t, tx.Memo, body.Memo)
	require.Len(t, body.Messages, len(tx.Messages))
	for i, m := range body.Messages {
		assert.Equal(t, tx.Messages[i].TypeURL, m.TypeUrl)
		assert.Equal(t, []byte(tx.Messages[i].Value), m.Value)
	}
	var send bankv1beta1.MsgSend
	require.NoError(t, proto.Unmarshal(body.Messages[0].Value, &send))
	assert.Equal(t, "cosmos1to", send.ToAddress)

	var auth txv1beta1.AuthInfo
	require.NoError(t, proto.Unmarshal(raw.AuthInfoBytes, &auth))
	assert.Equal(t, uint64(200000), auth.Fee.GasLimit)
	require.Len(t, auth.Fee.Amount, 1)
	assert.Equal(t, "uatom", auth.Fee.Amount[0].Denom)
	assert.Equal(t, "5000", auth.Fee.Amount[0].Amount)

	require.Len(t, auth.SignerInfos, 1)
	info := auth.SignerInfos[0]
	assert.Equal(t, uint64(3), info.Sequence)
	assert.Equal(t, signingv1beta1.SignMode_SIGN_MODE_DIRECT, info.ModeInfo.GetSingle().Mode)
	assert.Equal(t, "/cosmos.crypto.secp256k1.PubKey", info.PublicKey.TypeUrl)
	var pk secp256k1pk.PubKey
	require.NoError(t, proto.Unmarshal(info.PublicKey.Value, &pk))
	assert.Equal(t, pub, pk.Key)

	sum := sha256.Sum256(compiled.RawTx)
	assert.Equal(t, strings.ToUpper(hex.EncodeToString(sum[:])), compiled.TxHash)
}

func TestDirectSignDoc(t *testing.T) {
	tx := newTx(t, SignModeDirect)

	signBytes, err := SignBytes(tx)
	require.NoError(t, err)

	var doc txv1beta1.SignDoc
	require.NoError(t, proto.Unmarshal(signBytes, &doc))
	assert.Equal(t, "cosmoshub-4", doc.ChainId)
	assert.Equal(t, uint64(7), doc.AccountNumber)

	body, auth, err := tx.encode()
	require.NoError(t, err)
	assert.Equal(t, body, doc.BodyBytes)
	assert.Equal(t, auth, doc.AuthInfoBytes)

	hashes, err := tx.PreImages()
	require.NoError(t, err)
	assert.Equal(t, signing.Digest(sha256.Sum256(signBytes)), hashes[0].Hash)
	assert.Equal(t, signing.Secp256k1Ecdsa, hashes[0].Algorithm)
	assert.Equal(t, tx.Signer.Address, hashes[0].SignerID)
	assert.Equal(t, "Cosmos direct tx on cosmoshub-4: 1 message(s)", hashes[0].Description)
	assert.Empty(t, hashes[0].Message)
}

func TestAminoSignBytes(t *testing.T) {
	tx := newTx(t, SignModeAmino)

	signBytes, err := SignBytes(tx)
	require.NoError(t, err)

	want := `{"account_number":"7","chain_id":"cosmoshub-4","fee":{"amount":[{"amount":"5000","denom":"uatom"}],"gas":"200000"},"memo":"hi","msgs":[{"type":"cosmos-sdk/MsgSend","value":{"amount":[{"amount":"1000","denom":"uatom"}],"from_address":"cosmos1from","to_address":"cosmos1to"}}],"sequence":"3"}`
	assert.Equal(t, want, string(signBytes))

	tx.TimeoutHeight = 100
	tx.Fee.Granter = "cosmos1granter"
	signBytes, err = SignBytes(tx)
	require.NoError(t, err)
	assert.Contains(t, string(signBytes), `"granter":"cosmos1granter"`)
	assert.True(t, strings.HasSuffix(string(signBytes), `"sequence":"3","timeout_height":"100"}`))

	// amino 模式下 ModeInfo 仍需标记为 LEGACY_AMINO_JSON
	_, authBytes, err := tx.encode()
	require.NoError(t, err)
	var auth txv1beta1.AuthInfo
	require.NoError(t, proto.Unmarshal(authBytes, &auth))
	assert.Equal(t, signingv1beta1.SignMode_SIGN_MODE_LEGACY_AMINO_JSON, auth.SignerInfos[0].ModeInfo.GetSingle().Mode)

	tx.Messages[0].AminoJSON = nil
	_, err = SignBytes(tx)
	assert.ErrorIs(t, err, signing.ErrMissingField)
}

func TestTextualSignBytes(t *testing.T) {
	tx := newTx(t, SignModeTextual)
	tx.Fee.Amount[0].Amount = "1000000"

	signBytes, err := SignBytes(tx)
	require.NoError(t, err)
	text := string(signBytes)

	assert.Contains(t, text, "Chain id: cosmoshub-4\n")
	assert.Contains(t, text, "This transaction has 1 Message(s)\n")
	assert.Contains(t, text, "Message (1/1): /cosmos.bank.v1beta1.MsgSend\n")
	assert.Contains(t, text, "Fees: 1'000'000 uatom\n")
	assert.Contains(t, text, "Gas limit: 200'000\n")
	assert.Contains(t, text, "*Hash of raw bytes: ")

	// 同样的屏幕内容、不同的原始字节 -> 不同哈希
	a, err := tx.PreImages()
	require.NoError(t, err)
	tx.Messages[0].Value = append([]byte{}, tx.Messages[0].Value...)
	tx.Messages[0].Value[len(tx.Messages[0].Value)-1] ^= 0xff
	b, err := tx.PreImages()
	require.NoError(t, err)
	assert.NotEqual(t, a[0].Hash, b[0].Hash)
}

func TestSignModesDiffer(t *testing.T) {
	seen := map[signing.Digest]SignMode{}
	for _, mode := range []SignMode{SignModeAmino, SignModeDirect, SignModeTextual} {
		hashes, err := newTx(t, mode).PreImages()
		require.NoError(t, err)
		_, dup := seen[hashes[0].Hash]
		assert.False(t, dup, mode)
		seen[hashes[0].Hash] = mode
	}
}

func TestCompileSignatureForms(t *testing.T) {
	priv, pub, _ := testSecpKey(t)
	tx := newTx(t, SignModeDirect)
	hashes, err := tx.PreImages()
	require.NoError(t, err)

	der := ecdsa.Sign(priv, hashes[0].Hash[:]).Serialize()
	fromDER, err := Compile(tx, []signing.ExternalSignature{{Signature: der}})
	require.NoError(t, err)

	fromCompact, err := Compile(tx, []signing.ExternalSignature{{Signature: signSecp(t, priv, hashes[0]), PublicKey: pub}})
	require.NoError(t, err)
	assert.Equal(t, fromCompact.RawTx, fromDER.RawTx)
	assert.Len(t, fromDER.Signature, 64)

	var st signing.Transaction = tx
	signed, err := st.Compile([]signing.ExternalSignature{{Signature: der}})
	require.NoError(t, err)
	assert.Equal(t, fromDER.TxHash, signed.TxHash)
	assert.Equal(t, signing.ChainCosmos, signed.Chain)
}

func TestCompileErrors(t *testing.T) {
	priv, pub, _ := testSecpKey(t)
	otherSeed := sha256.Sum256([]byte("someone else"))
	otherPriv, otherPub := btcec.PrivKeyFromBytes(otherSeed[:])

	tx := newTx(t, SignModeDirect)
	hashes, err := tx.PreImages()
	require.NoError(t, err)
	good := signSecp(t, priv, hashes[0])

	_, err = Compile(tx, nil)
	assert.ErrorIs(t, err, signing.ErrInvalidSignature)

	_, err = Compile(tx, []signing.ExternalSignature{{Signature: good}, {Signature: good}})
	assert.ErrorIs(t, err, signing.ErrInvalidSignature)

	_, err = Compile(tx, []signing.ExternalSignature{{Signature: good[:40]}})
	assert.ErrorIs(t, err, signing.ErrInvalidSignature)

	// 别人的签名
	_, err = Compile(tx, []signing.ExternalSignature{{Signature: signSecp(t, otherPriv, hashes[0])}})
	assert.ErrorIs(t, err, signing.ErrInvalidSignature)

	_, err = Compile(tx, []signing.ExternalSignature{{Signature: good, PublicKey: otherPub.SerializeCompressed()}})
	assert.ErrorIs(t, err, signing.ErrPublicKeyMismatch)

	// 只有地址时，用地址校验签名公钥
	tx.Signer.PublicKey = nil
	hashes, err = tx.PreImages()
	require.NoError(t, err)
	_, err = Compile(tx, []signing.ExternalSignature{{Signature: signSecp(t, otherPriv, hashes[0]), PublicKey: otherPub.SerializeCompressed()}})
	assert.ErrorIs(t, err, signing.ErrPublicKeyMismatch)

	compiled, err := Compile(tx, []signing.ExternalSignature{{Signature: signSecp(t, priv, hashes[0]), PublicKey: pub}})
	require.NoError(t, err)
	assert.NotEmpty(t, compiled.TxHash)
}

func TestEd25519Signer(t *testing.T) {
	seed := sha256.Sum256([]byte("cosmos-ed25519"))
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)

	tx := newTx(t, SignModeDirect)
	tx.Signer.PublicKey = []byte(pub)
	tx.Signer.PublicKeyType = KeyTypeEd25519
	tx.Signer.Address = ""

	hashes, err := tx.PreImages()
	require.NoError(t, err)
	require.Equal(t, signing.Ed25519, hashes[0].Algorithm)
	require.NotEmpty(t, hashes[0].Message)

	sig := ed25519.Sign(priv, hashes[0].Message)
	compiled, err := Compile(tx, []signing.ExternalSignature{{Signature: sig}})
	require.NoError(t, err)

	var raw txv1beta1.TxRaw
	require.NoError(t, proto.Unmarshal(compiled.RawTx, &raw))
	assert.Equal(t, sig, raw.Signatures[0])

	sig[0] ^= 0x01
	_, err = Compile(tx, []signing.ExternalSignature{{Signature: sig}})
	assert.ErrorIs(t, err, signing.ErrInvalidSignature)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tx *UnsignedTransaction)
		wantErr error
	}{
		{"chain id", func(tx *UnsignedTransaction) { tx.ChainID = "" }, signing.ErrMissingField},
		{"messages", func(tx *UnsignedTransaction) { tx.Messages = nil }, signing.ErrMissingField},
		{"type url", func(tx *UnsignedTransaction) { tx.Messages[0].TypeURL = "" }, signing.ErrMissingField},
		{"sign mode", func(tx *UnsignedTransaction) { tx.SignMode = "eip712" }, signing.ErrUnsupportedType},
		{"amount", func(tx *UnsignedTransaction) { tx.Fee.Amount[0].Amount = "12abc" }, signing.ErrInvalidTransaction},
		{"negative amount", func(tx *UnsignedTransaction) { tx.Fee.Amount[0].Amount = "-1" }, signing.ErrInvalidTransaction},
		{"denom", func(tx *UnsignedTransaction) { tx.Fee.Amount[0].Denom = "" }, signing.ErrMissingField},
		{"key type", func(tx *UnsignedTransaction) { tx.Signer.PublicKeyType = "sr25519" }, signing.ErrUnsupportedType},
		{"key length", func(tx *UnsignedTransaction) { tx.Signer.PublicKey = tx.Signer.PublicKey[:32] }, signing.ErrInvalidTransaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newTx(t, SignModeDirect)
			tt.mutate(tx)
			_, err := tx.PreImages()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCustomKeyTypeURL(t *testing.T) {
	_, pub, _ := testSecpKey(t)
	tx := newTx(t, SignModeDirect)
	tx.Signer.PublicKeyType = "/ethermint.crypto.v1.ethsecp256k1.PubKey"
	tx.Signer.PublicKey = pub

	_, authBytes, err := tx.encode()
	require.NoError(t, err)
	var auth txv1beta1.AuthInfo
	require.NoError(t, proto.Unmarshal(authBytes, &auth))
	assert.Equal(t, "/ethermint.crypto.v1.ethsecp256k1.PubKey", auth.SignerInfos[0].PublicKey.TypeUrl)
}
