package bitcoin

import (
	"fmt"

	"wallet-signer/pkg/signing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
)

// SigHasher 持有一笔交易的 BIP-143/BIP-341 中间状态，可以并发为不同输入计算签名哈希。
type SigHasher struct {
	tx        *UnsignedTransaction
	hashType  SigHashType
	msg       *wire.MsgTx
	fetcher   *txscript.MultiPrevOutFetcher
	sigHashes *txscript.TxSigHashes
}

// NewSigHasher validates tx and precomputes the shared sighash midstate.
func NewSigHasher(tx *UnsignedTransaction, hashType SigHashType) (*SigHasher, error) {
	if err := validSigHashType(hashType); err != nil {
		return nil, err
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}
	msg, err := tx.msgTx()
	if err != nil {
		return nil, err
	}
	fetcher := tx.prevOutFetcher(msg)
	return &SigHasher{
		tx:        tx,
		hashType:  hashType,
		msg:       msg,
		fetcher:   fetcher,
		sigHashes: txscript.NewTxSigHashes(msg, fetcher),
	}, nil
}

// NumInputs 输入数量
func (h *SigHasher) NumInputs() int {
	return len(h.tx.Inputs)
}

// PreImage returns the pre-image hash for input idx.
func (h *SigHasher) PreImage(idx int) (signing.PreImageHash, error) {
	if idx < 0 || idx >= len(h.tx.Inputs) {
		return signing.PreImageHash{}, signing.InvalidInputIndex(idx)
	}
	raw, err := h.digest(idx)
	if err != nil {
		return signing.PreImageHash{}, err
	}
	if len(raw) != 32 {
		return signing.PreImageHash{}, signing.EncodingError("input %d: sighash has %d bytes", idx, len(raw))
	}

	in := &h.tx.Inputs[idx]
	p := signing.PreImageHash{
		SignerID:    signerID(in, idx),
		Algorithm:   signing.Secp256k1Ecdsa,
		InputIndex:  idx,
		Description: describeInput(in, idx),
	}
	if in.InputType.IsTaproot() {
		p.Algorithm = signing.Secp256k1Schnorr
	}
	copy(p.Hash[:], raw)
	return p, nil
}

func (h *SigHasher) digest(idx int) ([]byte, error) {
	in := &h.tx.Inputs[idx]
	hashType := effectiveSigHash(in.InputType, h.hashType)
	single := hashType&sigHashMask == SigHashSingle && idx >= len(h.msg.TxOut)

	var (
		raw []byte
		err error
	)
	switch {
	case in.InputType.IsTaproot():
		// BIP-341 没有 SIGHASH_SINGLE 的 "1" 哈希特例，直接判为无效
		if single {
			return nil, signing.InvalidTransaction("input %d: SIGHASH_SINGLE without a matching output", idx)
		}
		if in.InputType == P2TRScriptPath {
			leaf := txscript.NewBaseTapLeaf(in.TapLeafScript)
			raw, err = txscript.CalcTapscriptSignaturehash(h.sigHashes, hashType, h.msg, idx, h.fetcher, leaf)
		} else {
			raw, err = txscript.CalcTaprootSignatureHash(h.sigHashes, hashType, h.msg, idx, h.fetcher)
		}

	case in.InputType.IsSegwitV0():
		raw, err = txscript.CalcWitnessSigHash(in.ScriptCode, h.sigHashes, hashType, h.msg, idx, in.Value)

	default:
		// SIGHASH_SINGLE with no matching output signs 32 zero bytes.
		if single {
			return make([]byte, 32), nil
		}
		raw, err = txscript.CalcSignatureHash(in.ScriptCode, hashType, h.msg, idx)
	}
	if err != nil {
		return nil, signing.EncodingError("input %d: %v", idx, err)
	}
	return raw, nil
}

// GetSigHashes 为每个输入计算签名哈希，结果顺序与输入顺序一致
func GetSigHashes(tx *UnsignedTransaction, hashType SigHashType) ([]signing.PreImageHash, error) {
	h, err := NewSigHasher(tx, hashType)
	if err != nil {
		return nil, err
	}
	out := make([]signing.PreImageHash, len(tx.Inputs))
	for i := range tx.Inputs {
		if out[i], err = h.PreImage(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CalcSigHash computes the sighash of a single input.
func CalcSigHash(tx *UnsignedTransaction, idx int, hashType SigHashType) (signing.Digest, error) {
	if idx < 0 || idx >= len(tx.Inputs) {
		return signing.Digest{}, signing.InvalidInputIndex(idx)
	}
	h, err := NewSigHasher(tx, hashType)
	if err != nil {
		return signing.Digest{}, err
	}
	p, err := h.PreImage(idx)
	if err != nil {
		return signing.Digest{}, err
	}
	return p.Hash, nil
}

func signerID(in *Input, idx int) string {
	if in.DerivationPath != "" {
		return in.DerivationPath
	}
	return fmt.Sprintf("input_%d", idx)
}

func describeInput(in *Input, idx int) string {
	btc := decimal.New(in.Value, -8).StringFixed(8)
	return fmt.Sprintf("Bitcoin %s input %d (%d sats, %s BTC)", in.InputType, idx, in.Value, btc)
}
