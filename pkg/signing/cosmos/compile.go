package cosmos

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"

	txv1beta1 "cosmossdk.io/api/cosmos/tx/v1beta1"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// CompiledTransaction 可通过 BroadcastTx 提交的 TxRaw
type CompiledTransaction struct {
	RawTx         []byte
	TxHash        string // 大写 hex，与 CometBFT 区块浏览器一致
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signature     []byte
}

func (c *CompiledTransaction) Envelope() *signing.SignedTransaction {
	return &signing.SignedTransaction{
		Chain:  signing.ChainCosmos,
		TxHash: c.TxHash,
		RawTx:  c.RawTx,
	}
}

// Compile 组装 TxRaw{body_bytes, auth_info_bytes, [signature]}
func Compile(tx *UnsignedTransaction, sigs []signing.ExternalSignature) (*CompiledTransaction, error) {
	bodyBytes, authInfoBytes, err := tx.encode()
	if err != nil {
		return nil, err
	}
	if err := signing.CheckSignatures(sigs, 1); err != nil {
		return nil, err
	}
	ext := &sigs[0]

	pubKey, err := tx.checkPublicKey(ext.PublicKey)
	if err != nil {
		return nil, err
	}
	sig, err := tx.normalizeSignature(ext.Signature)
	if err != nil {
		return nil, err
	}

	// 自定义类型 (如 ethsecp256k1) 的摘要算法不同，交给链上验证
	if len(pubKey) > 0 && !tx.Signer.customKeyType() {
		signBytes, err := SignBytes(tx)
		if err != nil {
			return nil, err
		}
		if err := tx.verify(pubKey, signBytes, sig); err != nil {
			return nil, err
		}
	}

	raw, err := marshalOpts.Marshal(&txv1beta1.TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{sig},
	})
	if err != nil {
		return nil, signing.EncodingError("tx raw: %v", err)
	}

	sum := crypto_util.SHA256(raw)
	return &CompiledTransaction{
		RawTx:         raw,
		TxHash:        strings.ToUpper(hex.EncodeToString(sum[:])),
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signature:     sig,
	}, nil
}

// Compile implements signing.Transaction.
func (tx *UnsignedTransaction) Compile(sigs []signing.ExternalSignature) (*signing.SignedTransaction, error) {
	compiled, err := Compile(tx, sigs)
	if err != nil {
		return nil, err
	}
	return compiled.Envelope(), nil
}

// checkPublicKey returns the key the signature should verify against. A key
// supplied with the signature must agree with the signer's key and address.
func (tx *UnsignedTransaction) checkPublicKey(given []byte) ([]byte, error) {
	known := []byte(tx.Signer.PublicKey)
	if len(given) == 0 {
		return known, nil
	}
	if len(known) > 0 && !bytes.Equal(known, given) {
		return nil, signing.PublicKeyMismatch("signature public key differs from signer public key")
	}
	if tx.Signer.Address == "" || tx.Signer.customKeyType() {
		return given, nil
	}

	hrp, _, err := address.SplitAddress(tx.Signer.Address)
	if err != nil {
		return nil, signing.InvalidTransaction("signer address: %v", err)
	}
	gen := address.NewCosmosGenerator(hrp)
	var derived string
	if tx.Signer.keyType() == KeyTypeEd25519 {
		derived, err = gen.Ed25519PubKeyToAddress(given)
	} else {
		derived, err = gen.PubKeyToAddress(given)
	}
	if err != nil {
		return nil, signing.InvalidSignature("%v", err)
	}
	if derived != tx.Signer.Address {
		return nil, signing.PublicKeyMismatch("public key derives %s, signer is %s", derived, tx.Signer.Address)
	}
	return given, nil
}

// normalizeSignature 返回 64 字节签名；secp256k1 的 DER 或 high-S 签名转换为 low-S r||s
func (tx *UnsignedTransaction) normalizeSignature(sig []byte) ([]byte, error) {
	if tx.Signer.keyType() == KeyTypeEd25519 {
		if len(sig) != ed25519.SignatureSize {
			return nil, signing.InvalidSignature("ed25519 signature must be 64 bytes, got %d", len(sig))
		}
		return sig, nil
	}

	var (
		out []byte
		err error
	)
	switch {
	case len(sig) == 64:
		out, err = crypto_util.NormalizeCompact(sig)
	case len(sig) > 64 && sig[0] == 0x30:
		out, err = crypto_util.DERToCompact(sig)
	default:
		return nil, signing.InvalidSignature("secp256k1 signature must be 64 bytes or DER, got %d bytes", len(sig))
	}
	if err != nil {
		return nil, signing.InvalidSignature("%v", err)
	}
	return out, nil
}

func (tx *UnsignedTransaction) verify(pubKey, signBytes, sig []byte) error {
	if tx.Signer.keyType() == KeyTypeEd25519 {
		if len(pubKey) != ed25519.PublicKeySize || !ed25519.Verify(pubKey, signBytes, sig) {
			return signing.InvalidSignature("ed25519 signature does not verify")
		}
		return nil
	}

	pub, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return signing.InvalidSignature("public key: %v", err)
	}
	der, err := crypto_util.CompactToDER(sig)
	if err != nil {
		return signing.InvalidSignature("%v", err)
	}
	parsed, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return signing.InvalidSignature("%v", err)
	}
	digest := crypto_util.SHA256(signBytes)
	if !parsed.Verify(digest[:], pub) {
		return signing.InvalidSignature("secp256k1 signature does not verify")
	}
	return nil
}
