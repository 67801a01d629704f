package ethereum

import (
	"fmt"

	"wallet-signer/pkg/signing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

var _ signing.Transaction = (*UnsignedTransaction)(nil)

func (tx *UnsignedTransaction) Chain() signing.Chain { return signing.ChainEthereum }

// signer 对 legacy 交易按 EIP-155 折叠 chain_id，对 typed 交易使用对应的信封
func (tx *UnsignedTransaction) signer() types.Signer {
	return types.LatestSignerForChainID(tx.ChainID)
}

// SigningHash returns keccak256 of the unsigned envelope, signature fields omitted.
func SigningHash(tx *UnsignedTransaction) (signing.Digest, error) {
	data, err := tx.txData()
	if err != nil {
		return signing.Digest{}, err
	}
	return signing.Digest(tx.signer().Hash(types.NewTx(data))), nil
}

// PreImages 以太坊交易只有一个签名者
func (tx *UnsignedTransaction) PreImages() ([]signing.PreImageHash, error) {
	hash, err := SigningHash(tx)
	if err != nil {
		return nil, err
	}
	signerID := tx.DerivationPath
	if signerID == "" {
		signerID = "signer_0"
	}
	return []signing.PreImageHash{{
		Hash:        hash,
		SignerID:    signerID,
		Algorithm:   signing.Secp256k1Ecdsa,
		InputIndex:  0,
		Description: tx.describe(),
	}}, nil
}

func (tx *UnsignedTransaction) describe() string {
	eth := decimal.NewFromBigInt(tx.value(), -18).String()
	to := "contract creation"
	if tx.To != nil {
		to = tx.To.Hex()
	}
	return fmt.Sprintf("Ethereum %s tx: %s ETH to %s", tx.Type, eth, to)
}
