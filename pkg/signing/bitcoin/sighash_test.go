package bitcoin

import (
	"encoding/hex"
	"testing"

	"wallet-signer/pkg/signing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// bip143NativeP2WPKH 是 BIP-143 文档中的 "Native P2WPKH" 示例交易
func bip143NativeP2WPKH(t *testing.T) *UnsignedTransaction {
	return &UnsignedTransaction{
		Version: 1,
		Inputs: []Input{
			{
				TxID:       "9f96ade4b41d5433f4eda31e1738ec2b36f6e7d1420d94a6af99801a88f7f7ff",
				Vout:       0,
				ScriptCode: mustHex(t, "2103c9f4836b9a4f77fc0d81f7bcb01b7f1b35916864b9476c241ce9fc198bd25432ac"),
				Value:      625000000,
				Sequence:   0xffffffee,
				InputType:  P2PKH,
			},
			{
				TxID:       "8ac60eb9575db5b2d987e29f301b5b819ea83a5c6579d282d189cc04b8e151ef",
				Vout:       1,
				ScriptCode: mustHex(t, "00141d0f172a0ecb48aee1be1f2687d2963ae33f71a1"),
				Value:      600000000,
				Sequence:   0xffffffff,
				InputType:  P2WPKH,
			},
		},
		Outputs: []Output{
			{Value: 112340000, ScriptPubKey: mustHex(t, "76a9148280b37df378db99f66f85c95a783a76ac7a6d5988ac")},
			{Value: 223450000, ScriptPubKey: mustHex(t, "76a9143bde42dbee7e4dbe6a21b2d50ce2f0167faa815988ac")},
		},
		LockTime: 17,
	}
}

func TestSegwitSigHashMatchesBIP143Vector(t *testing.T) {
	tx := bip143NativeP2WPKH(t)

	digest, err := CalcSigHash(tx, 1, SigHashAll)
	require.NoError(t, err)
	assert.Equal(t, "c37af31116d1b27caf68aae9e3ac82f1477929014d5b917657d0eb49478cb670", hex.EncodeToString(digest[:]))
}

func TestGetSigHashes(t *testing.T) {
	tx := bip143NativeP2WPKH(t)
	tx.Inputs[1].DerivationPath = "m/84'/0'/0'/0/1"

	hashes, err := GetSigHashes(tx, SigHashAll)
	require.NoError(t, err)
	require.Len(t, hashes, 2)

	for i, h := range hashes {
		assert.Equal(t, i, h.InputIndex)
		assert.Equal(t, signing.Secp256k1Ecdsa, h.Algorithm)
		assert.False(t, h.Hash.IsZero())
	}
	assert.Equal(t, "input_0", hashes[0].SignerID)
	assert.Equal(t, "m/84'/0'/0'/0/1", hashes[1].SignerID)
	assert.Equal(t, "Bitcoin p2wpkh input 1 (600000000 sats, 6.00000000 BTC)", hashes[1].Description)

	// 单个输入的结果与批量结果一致
	single, err := CalcSigHash(tx, 0, SigHashAll)
	require.NoError(t, err)
	assert.Equal(t, hashes[0].Hash, single)
}

func TestSigHashSingleWithoutMatchingOutput(t *testing.T) {
	tx := bip143NativeP2WPKH(t)
	tx.Inputs[1].InputType = P2PKH
	tx.Inputs[1].ScriptCode = mustHex(t, "76a9141d0f172a0ecb48aee1be1f2687d2963ae33f71a188ac")
	tx.Outputs = tx.Outputs[:1]

	for _, hashType := range []SigHashType{SigHashSingle, SigHashSingle | SigHashAnyOneCanPay} {
		zero, err := CalcSigHash(tx, 1, hashType)
		require.NoError(t, err)
		assert.Equal(t, signing.Digest{}, zero, "input past the last output signs 32 zero bytes")

		first, err := CalcSigHash(tx, 0, hashType)
		require.NoError(t, err)
		assert.False(t, first.IsZero())
	}
}

func TestSigHashTypesDiffer(t *testing.T) {
	tx := bip143NativeP2WPKH(t)
	seen := map[signing.Digest]SigHashType{}

	for _, hashType := range []SigHashType{
		SigHashAll, SigHashNone, SigHashSingle,
		SigHashAll | SigHashAnyOneCanPay, SigHashNone | SigHashAnyOneCanPay, SigHashSingle | SigHashAnyOneCanPay,
	} {
		for idx := range tx.Inputs {
			d, err := CalcSigHash(tx, idx, hashType)
			require.NoError(t, err)
			_, dup := seen[d]
			assert.False(t, dup, "hash type 0x%02x input %d collides", uint8(hashType), idx)
			seen[d] = hashType
		}
	}
}

func TestSigHashErrors(t *testing.T) {
	tx := bip143NativeP2WPKH(t)

	_, err := CalcSigHash(tx, 2, SigHashAll)
	assert.ErrorIs(t, err, signing.ErrInvalidInputIndex)

	_, err = CalcSigHash(tx, -1, SigHashAll)
	assert.ErrorIs(t, err, signing.ErrInvalidInputIndex)

	h, err := NewSigHasher(tx, SigHashAll)
	require.NoError(t, err)
	_, err = h.PreImage(9)
	assert.ErrorIs(t, err, signing.ErrInvalidInputIndex)

	_, err = GetSigHashes(tx, SigHashType(0x04))
	assert.ErrorIs(t, err, signing.ErrUnsupportedType)

	bad := bip143NativeP2WPKH(t)
	bad.Inputs[0].TxID = "zz"
	_, err = GetSigHashes(bad, SigHashAll)
	assert.ErrorIs(t, err, signing.ErrInvalidTransaction)

	bad = bip143NativeP2WPKH(t)
	bad.Inputs[1].ScriptCode = nil
	_, err = GetSigHashes(bad, SigHashAll)
	assert.ErrorIs(t, err, signing.ErrMissingField)

	bad = bip143NativeP2WPKH(t)
	bad.Inputs[0].InputType = "p2pk"
	_, err = GetSigHashes(bad, SigHashAll)
	assert.ErrorIs(t, err, signing.ErrUnsupportedType)
}

func TestTaprootSigHash(t *testing.T) {
	key := newTestKey(t, "taproot")
	tx := &UnsignedTransaction{
		Version: 2,
		Inputs: []Input{{
			TxID:         testTxID,
			ScriptPubKey: key.p2tr(t),
			Value:        50000,
			Sequence:     0xfffffffd,
			InputType:    P2TRKeyPath,
		}},
		Outputs: []Output{{Value: 40000, ScriptPubKey: key.p2wpkh(t)}},
	}

	hashes, err := GetSigHashes(tx, SigHashDefault)
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	assert.Equal(t, signing.Secp256k1Schnorr, hashes[0].Algorithm)

	all, err := CalcSigHash(tx, 0, SigHashAll)
	require.NoError(t, err)
	assert.NotEqual(t, hashes[0].Hash, all, "the hash type byte is committed")

	// SIGHASH_SINGLE 无对应输出在 BIP-341 下无效
	second := tx.Inputs[0]
	second.Vout = 1
	tx.Inputs = append(tx.Inputs, second)
	_, err = CalcSigHash(tx, 1, SigHashSingle)
	assert.ErrorIs(t, err, signing.ErrInvalidTransaction)

	// 非 P2TR 的 prevout 不能按 taproot 签名
	tx.Inputs[1].ScriptPubKey = key.p2wpkh(t)
	_, err = GetSigHashes(tx, SigHashDefault)
	assert.ErrorIs(t, err, signing.ErrInvalidTransaction)
}

func TestParseSigHashType(t *testing.T) {
	tests := []struct {
		in      string
		want    SigHashType
		wantErr bool
	}{
		{"", SigHashAll, false},
		{"ALL", SigHashAll, false},
		{"SIGHASH_NONE", SigHashNone, false},
		{"single|anyonecanpay", SigHashSingle | SigHashAnyOneCanPay, false},
		{"default", SigHashDefault, false},
		{"0x82", SigHashNone | SigHashAnyOneCanPay, false},
		{"0x04", 0, true},
		{"everything", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSigHashType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, signing.ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
