package solana

import (
	"bytes"
	"crypto/ed25519"

	"wallet-signer/pkg/signing"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// CompiledTransaction Solana wire 交易
type CompiledTransaction struct {
	RawTx      []byte
	Signature  string // base58 of the first signature, the transaction id
	Message    []byte
	Signatures [][]byte // account-table order
}

func (c *CompiledTransaction) Envelope() *signing.SignedTransaction {
	return &signing.SignedTransaction{
		Chain:  signing.ChainSolana,
		TxHash: c.Signature,
		RawTx:  c.RawTx,
	}
}

// Compile pairs sigs[i] with tx.Signers[i], verifies each one against the
// message and writes them in the message's signer order.
func Compile(tx *UnsignedTransaction, sigs []signing.ExternalSignature) (*CompiledTransaction, error) {
	msg, err := CompileMessage(tx)
	if err != nil {
		return nil, err
	}
	if err := signing.CheckSignatures(sigs, len(tx.Signers)); err != nil {
		return nil, err
	}
	raw := msg.Serialize()

	bySigner := make(map[PublicKey][]byte, len(sigs))
	for i, sig := range sigs {
		signer := tx.Signers[i].PublicKey
		if len(sig.PublicKey) > 0 && !bytes.Equal(sig.PublicKey, signer[:]) {
			return nil, signing.PublicKeyMismatch("signature %d carries %s, signer is %s", i, base58.Encode(sig.PublicKey), signer)
		}
		if len(sig.Signature) != ed25519.SignatureSize {
			return nil, signing.InvalidSignature("signature %d must be 64 bytes, got %d", i, len(sig.Signature))
		}
		if !ed25519.Verify(signer[:], raw, sig.Signature) {
			return nil, signing.InvalidSignature("signature %d does not verify for %s", i, signer)
		}
		bySigner[signer] = sig.Signature
	}

	ordered := make([][]byte, 0, msg.Header.NumRequiredSignatures)
	for _, k := range msg.Signers() {
		sig, ok := bySigner[k]
		if !ok {
			return nil, signing.InvalidSignature("no signature for required signer %s", k)
		}
		ordered = append(ordered, sig)
	}

	var buf bytes.Buffer
	writeCompactU16(&buf, len(ordered))
	for _, sig := range ordered {
		buf.Write(sig)
	}
	buf.Write(raw)

	return &CompiledTransaction{
		RawTx:      buf.Bytes(),
		Signature:  base58.Encode(ordered[0]),
		Message:    raw,
		Signatures: ordered,
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
