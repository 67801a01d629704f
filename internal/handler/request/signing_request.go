package request

import (
	"wallet-signer/pkg/signing"
	"wallet-signer/pkg/signing/bitcoin"
	"wallet-signer/pkg/signing/cosmos"
	"wallet-signer/pkg/signing/ethereum"
	"wallet-signer/pkg/signing/solana"
	"wallet-signer/pkg/wallet/types"
)

type PreImagesRequest struct {
	Chain       string                        `json:"chain" binding:"required,chain"`
	SigHashType string                        `json:"sighash_type"`
	Bitcoin     *bitcoin.UnsignedTransaction  `json:"bitcoin"`
	Ethereum    *ethereum.UnsignedTransaction `json:"ethereum"`
	Cosmos      *cosmos.UnsignedTransaction   `json:"cosmos"`
	Solana      *solana.UnsignedTransaction   `json:"solana"`
}

func (r *PreImagesRequest) Envelope() *types.UnsignedTransaction {
	return &types.UnsignedTransaction{
		Chain:       signing.Chain(r.Chain),
		SigHashType: r.SigHashType,
		Bitcoin:     r.Bitcoin,
		Ethereum:    r.Ethereum,
		Cosmos:      r.Cosmos,
		Solana:      r.Solana,
	}
}

type CompileRequest struct {
	Transaction PreImagesRequest            `json:"transaction" binding:"required"`
	Signatures  []signing.ExternalSignature `json:"signatures" binding:"required,min=1"`
}

func (r *CompileRequest) Envelope() *types.CompileRequest {
	return &types.CompileRequest{
		Transaction: *r.Transaction.Envelope(),
		Signatures:  r.Signatures,
	}
}
