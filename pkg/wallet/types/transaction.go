package types

import (
	"fmt"

	"wallet-signer/pkg/signing"
	"wallet-signer/pkg/signing/bitcoin"
	"wallet-signer/pkg/signing/cosmos"
	"wallet-signer/pkg/signing/ethereum"
	"wallet-signer/pkg/signing/solana"
)

// UnsignedTransaction is the file/HTTP envelope for a transaction waiting to be
// signed. Exactly the section named by Chain is read.
type UnsignedTransaction struct {
	Chain signing.Chain `json:"chain"` // bitcoin, ethereum, cosmos, solana

	// SigHashType 仅比特币使用，例如 "all"、"single|anyonecanpay"、"0x83"
	SigHashType string `json:"sighash_type,omitempty"`

	Bitcoin  *bitcoin.UnsignedTransaction  `json:"bitcoin,omitempty"`
	Ethereum *ethereum.UnsignedTransaction `json:"ethereum,omitempty"`
	Cosmos   *cosmos.UnsignedTransaction   `json:"cosmos,omitempty"`
	Solana   *solana.UnsignedTransaction   `json:"solana,omitempty"`
}

// Signable resolves the envelope into the chain's signing.Transaction.
// defaultSigHash applies to bitcoin envelopes that carry no sighash_type.
func (u *UnsignedTransaction) Signable(defaultSigHash string) (signing.Transaction, error) {
	switch u.Chain {
	case signing.ChainBitcoin:
		if u.Bitcoin == nil {
			return nil, signing.MissingField("bitcoin")
		}
		name := u.SigHashType
		if name == "" {
			name = defaultSigHash
		}
		hashType, err := bitcoin.ParseSigHashType(name)
		if err != nil {
			return nil, err
		}
		return bitcoin.NewSignable(u.Bitcoin, hashType), nil

	case signing.ChainEthereum:
		if u.Ethereum == nil {
			return nil, signing.MissingField("ethereum")
		}
		return u.Ethereum, nil

	case signing.ChainCosmos:
		if u.Cosmos == nil {
			return nil, signing.MissingField("cosmos")
		}
		return u.Cosmos, nil

	case signing.ChainSolana:
		if u.Solana == nil {
			return nil, signing.MissingField("solana")
		}
		return u.Solana, nil

	case "":
		return nil, signing.MissingField("chain")

	default:
		return nil, signing.UnsupportedType(fmt.Sprintf("chain %q", u.Chain))
	}
}

// PreImageBundle 是 preimage 命令/接口的输出，交给外部签名器逐条签名
type PreImageBundle struct {
	Chain     signing.Chain          `json:"chain"`
	PreImages []signing.PreImageHash `json:"pre_images"`
}

// SignatureBundle 是外部签名器的输出，顺序与 PreImageBundle.PreImages 一致
type SignatureBundle struct {
	Chain      signing.Chain               `json:"chain"`
	Signatures []signing.ExternalSignature `json:"signatures"`
}

// CompileRequest pairs an unsigned envelope with the signatures for it.
type CompileRequest struct {
	Transaction UnsignedTransaction         `json:"transaction"`
	Signatures  []signing.ExternalSignature `json:"signatures"`
}

// SignedTransaction represents the result of the signing process.
type SignedTransaction = signing.SignedTransaction
