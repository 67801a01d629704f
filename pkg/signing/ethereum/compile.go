package ethereum

import (
	"wallet-signer/pkg/address"
	"wallet-signer/pkg/signing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CompiledTransaction 已签名的以太坊交易
type CompiledTransaction struct {
	RawTx  []byte
	TxHash common.Hash // keccak256(RawTx)
	From   common.Address
	Tx     *types.Transaction
}

// Envelope 转换为链无关的结果
func (c *CompiledTransaction) Envelope() *signing.SignedTransaction {
	return &signing.SignedTransaction{
		Chain:  signing.ChainEthereum,
		TxHash: c.TxHash.Hex(),
		RawTx:  c.RawTx,
		From:   c.From.Hex(),
	}
}

// Compile attaches the external signature to tx. The signature is r||s with a
// separate recovery id, or r||s||v where v is 0, 1, 27 or 28.
func Compile(tx *UnsignedTransaction, sigs []signing.ExternalSignature) (*CompiledTransaction, error) {
	data, err := tx.txData()
	if err != nil {
		return nil, err
	}
	if err := signing.CheckSignatures(sigs, 1); err != nil {
		return nil, err
	}
	sig, err := recoverableSignature(&sigs[0])
	if err != nil {
		return nil, err
	}

	// WithSignature 负责 EIP-155 的 v = chain_id*2 + 35 + recid，typed 交易直接写 recid
	signer := tx.signer()
	signed, err := types.NewTx(data).WithSignature(signer, sig)
	if err != nil {
		return nil, signing.InvalidSignature("%v", err)
	}

	from, err := types.Sender(signer, signed)
	if err != nil {
		return nil, signing.InvalidSignature("recover sender: %v", err)
	}
	if len(sigs[0].PublicKey) > 0 {
		expected, err := address.NewETHGenerator().PubKeyToAddress(sigs[0].PublicKey)
		if err != nil {
			return nil, signing.InvalidSignature("%v", err)
		}
		if expected != from {
			return nil, signing.PublicKeyMismatch("signature recovers %s, public key is %s", from.Hex(), expected.Hex())
		}
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, signing.EncodingError("encode transaction: %v", err)
	}
	return &CompiledTransaction{
		RawTx:  raw,
		TxHash: signed.Hash(),
		From:   from,
		Tx:     signed,
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

// recoverableSignature 返回 go-ethereum 需要的 [R || S || recid] 65 字节格式
func recoverableSignature(ext *signing.ExternalSignature) ([]byte, error) {
	var recid uint8
	switch len(ext.Signature) {
	case 64:
		if ext.RecoveryID == nil {
			return nil, signing.MissingField("recovery_id")
		}
		recid = *ext.RecoveryID
	case 65:
		recid = ext.Signature[64]
		if recid >= 27 {
			recid -= 27
		}
		if ext.RecoveryID != nil && *ext.RecoveryID != recid {
			return nil, signing.InvalidSignature("recovery id %d disagrees with v byte %d", *ext.RecoveryID, ext.Signature[64])
		}
	default:
		return nil, signing.InvalidSignature("signature must be 64 or 65 bytes, got %d", len(ext.Signature))
	}
	if recid > 1 {
		return nil, signing.InvalidSignature("recovery id %d out of range", recid)
	}

	out := make([]byte, 65)
	copy(out, ext.Signature[:64])
	out[64] = recid
	return out, nil
}
