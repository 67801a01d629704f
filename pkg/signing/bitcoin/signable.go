package bitcoin

import (
	"wallet-signer/pkg/signing"
)

// Signable 将比特币交易与签名哈希类型绑定，实现 signing.Transaction
type Signable struct {
	Tx       *UnsignedTransaction
	HashType SigHashType
}

var _ signing.Transaction = (*Signable)(nil)

func NewSignable(tx *UnsignedTransaction, hashType SigHashType) *Signable {
	return &Signable{Tx: tx, HashType: hashType}
}

func (s *Signable) Chain() signing.Chain { return signing.ChainBitcoin }

func (s *Signable) PreImages() ([]signing.PreImageHash, error) {
	return GetSigHashes(s.Tx, s.HashType)
}

// SigHasher exposes the per-input hasher for callers that fan out the work.
func (s *Signable) SigHasher() (*SigHasher, error) {
	return NewSigHasher(s.Tx, s.HashType)
}

func (s *Signable) Compile(sigs []signing.ExternalSignature) (*signing.SignedTransaction, error) {
	compiled, err := Compile(s.Tx, s.HashType, sigs)
	if err != nil {
		return nil, err
	}
	return compiled.Envelope(), nil
}
