package ethereum

import (
	"fmt"
	"math/big"

	"wallet-signer/pkg/signing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// TxType 交易信封类型
type TxType string

const (
	Legacy            TxType = "legacy"             // EIP-155
	AccessList        TxType = "access_list"        // EIP-2930, 0x01
	FeeMarket         TxType = "fee_market"         // EIP-1559, 0x02
	AccountDelegation TxType = "account_delegation" // EIP-7702, 0x04
)

// UnsignedTransaction 待签名的以太坊交易
type UnsignedTransaction struct {
	Type    TxType   `json:"tx_type"`
	ChainID *big.Int `json:"chain_id"`
	Nonce   uint64   `json:"nonce"`

	GasPrice             *big.Int `json:"gas_price,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas,omitempty"`
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas,omitempty"`
	GasLimit             uint64   `json:"gas_limit"`

	To    *common.Address `json:"to,omitempty"` // nil 表示合约创建
	Value *big.Int        `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`

	AccessList        types.AccessList             `json:"access_list,omitempty"`
	AuthorizationList []types.SetCodeAuthorization `json:"authorization_list,omitempty"`

	DerivationPath string `json:"derivation_path,omitempty"`
}

func (tx *UnsignedTransaction) value() *big.Int {
	if tx.Value == nil {
		return new(big.Int)
	}
	return tx.Value
}

func (tx *UnsignedTransaction) validate() error {
	if tx.ChainID == nil {
		return signing.MissingField("chain_id")
	}
	if tx.ChainID.Sign() <= 0 {
		return signing.InvalidTransaction("chain_id must be positive")
	}
	if tx.value().Sign() < 0 {
		return signing.InvalidTransaction("negative value")
	}

	switch tx.Type {
	case Legacy, AccessList:
		if tx.GasPrice == nil {
			return signing.MissingField("gas_price")
		}
	case FeeMarket, AccountDelegation:
		if tx.MaxFeePerGas == nil {
			return signing.MissingField("max_fee_per_gas")
		}
		if tx.MaxPriorityFeePerGas == nil {
			return signing.MissingField("max_priority_fee_per_gas")
		}
	default:
		return signing.UnsupportedType(fmt.Sprintf("ethereum tx type %q", tx.Type))
	}

	if tx.Type == AccountDelegation {
		// EIP-7702 交易不能用于合约创建
		if tx.To == nil {
			return signing.MissingField("to")
		}
		if len(tx.AuthorizationList) == 0 {
			return signing.MissingField("authorization_list")
		}
	}

	for name, v := range map[string]*big.Int{
		"gas_price":                tx.GasPrice,
		"max_fee_per_gas":          tx.MaxFeePerGas,
		"max_priority_fee_per_gas": tx.MaxPriorityFeePerGas,
	} {
		if v != nil && v.Sign() < 0 {
			return signing.InvalidTransaction("negative %s", name)
		}
	}
	return nil
}

// txData builds the go-ethereum inner transaction without signature values.
func (tx *UnsignedTransaction) txData() (types.TxData, error) {
	if err := tx.validate(); err != nil {
		return nil, err
	}

	switch tx.Type {
	case Legacy:
		return &types.LegacyTx{
			Nonce:    tx.Nonce,
			GasPrice: tx.GasPrice,
			Gas:      tx.GasLimit,
			To:       tx.To,
			Value:    tx.value(),
			Data:     tx.Data,
		}, nil
	case AccessList:
		return &types.AccessListTx{
			ChainID:    tx.ChainID,
			Nonce:      tx.Nonce,
			GasPrice:   tx.GasPrice,
			Gas:        tx.GasLimit,
			To:         tx.To,
			Value:      tx.value(),
			Data:       tx.Data,
			AccessList: tx.AccessList,
		}, nil
	case FeeMarket:
		return &types.DynamicFeeTx{
			ChainID:    tx.ChainID,
			Nonce:      tx.Nonce,
			GasTipCap:  tx.MaxPriorityFeePerGas,
			GasFeeCap:  tx.MaxFeePerGas,
			Gas:        tx.GasLimit,
			To:         tx.To,
			Value:      tx.value(),
			Data:       tx.Data,
			AccessList: tx.AccessList,
		}, nil
	}

	// SetCodeTx 使用 uint256
	fields := map[string]*big.Int{
		"chain_id":                 tx.ChainID,
		"max_priority_fee_per_gas": tx.MaxPriorityFeePerGas,
		"max_fee_per_gas":          tx.MaxFeePerGas,
		"value":                    tx.value(),
	}
	u := make(map[string]*uint256.Int, len(fields))
	for name, v := range fields {
		converted, overflow := uint256.FromBig(v)
		if overflow {
			return nil, signing.InvalidTransaction("%s overflows 256 bits", name)
		}
		u[name] = converted
	}
	return &types.SetCodeTx{
		ChainID:    u["chain_id"],
		Nonce:      tx.Nonce,
		GasTipCap:  u["max_priority_fee_per_gas"],
		GasFeeCap:  u["max_fee_per_gas"],
		Gas:        tx.GasLimit,
		To:         *tx.To,
		Value:      u["value"],
		Data:       tx.Data,
		AccessList: tx.AccessList,
		AuthList:   tx.AuthorizationList,
	}, nil
}
