package cosmos

import (
	"encoding/json"
	"fmt"
	"strings"

	"wallet-signer/pkg/signing"

	signingv1beta1 "cosmossdk.io/api/cosmos/tx/signing/v1beta1"
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignMode 决定签名文档的构造方式
type SignMode string

const (
	SignModeAmino   SignMode = "amino"
	SignModeDirect  SignMode = "direct"
	SignModeTextual SignMode = "textual"
)

func (m SignMode) proto() (signingv1beta1.SignMode, error) {
	switch m {
	case SignModeAmino:
		return signingv1beta1.SignMode_SIGN_MODE_LEGACY_AMINO_JSON, nil
	case SignModeDirect:
		return signingv1beta1.SignMode_SIGN_MODE_DIRECT, nil
	case SignModeTextual:
		return signingv1beta1.SignMode_SIGN_MODE_TEXTUAL, nil
	}
	return signingv1beta1.SignMode_SIGN_MODE_UNSPECIFIED, signing.UnsupportedType(fmt.Sprintf("cosmos sign mode %q", m))
}

// Public key types. Any other value is used verbatim as the Any type URL of a
// key encoded like secp256k1.PubKey (e.g. "/ethermint.crypto.v1.ethsecp256k1.PubKey").
const (
	KeyTypeSecp256k1 = "secp256k1"
	KeyTypeEd25519   = "ed25519"

	secp256k1TypeURL = "/cosmos.crypto.secp256k1.PubKey"
	ed25519TypeURL   = "/cosmos.crypto.ed25519.PubKey"
)

// Message 是一个已经 protobuf 编码的 sdk.Msg
type Message struct {
	TypeURL string        `json:"type_url"`
	Value   hexutil.Bytes `json:"value"`

	// AminoJSON is the legacy Amino JSON form ({"type":..,"value":..}), required
	// for SIGN_MODE_LEGACY_AMINO_JSON.
	AminoJSON json.RawMessage `json:"amino_json,omitempty"`
}

type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type Fee struct {
	Amount   []Coin `json:"amount"`
	GasLimit uint64 `json:"gas_limit"`
	Payer    string `json:"payer,omitempty"`
	Granter  string `json:"granter,omitempty"`
}

type Signer struct {
	AccountNumber  uint64        `json:"account_number"`
	Sequence       uint64        `json:"sequence"`
	PublicKey      hexutil.Bytes `json:"public_key,omitempty"`
	PublicKeyType  string        `json:"public_key_type,omitempty"` // 默认 secp256k1
	Address        string        `json:"address,omitempty"`
	DerivationPath string        `json:"derivation_path,omitempty"`
}

func (s *Signer) keyType() string {
	if s.PublicKeyType == "" {
		return KeyTypeSecp256k1
	}
	return s.PublicKeyType
}

func (s *Signer) customKeyType() bool {
	kt := s.keyType()
	return kt != KeyTypeSecp256k1 && kt != KeyTypeEd25519
}

// UnsignedTransaction 单签名者的 Cosmos SDK 交易
type UnsignedTransaction struct {
	ChainID       string    `json:"chain_id"`
	Messages      []Message `json:"messages"`
	Fee           Fee       `json:"fee"`
	Memo          string    `json:"memo,omitempty"`
	TimeoutHeight uint64    `json:"timeout_height,omitempty"`
	SignMode      SignMode  `json:"sign_mode"`
	Signer        Signer    `json:"signer"`
}

func (tx *UnsignedTransaction) validate() error {
	if tx.ChainID == "" {
		return signing.MissingField("chain_id")
	}
	if len(tx.Messages) == 0 {
		return signing.MissingField("messages")
	}
	for i, msg := range tx.Messages {
		if msg.TypeURL == "" {
			return signing.MissingField(fmt.Sprintf("messages[%d].type_url", i))
		}
	}
	if _, err := tx.SignMode.proto(); err != nil {
		return err
	}
	for i, coin := range tx.Fee.Amount {
		if coin.Denom == "" {
			return signing.MissingField(fmt.Sprintf("fee.amount[%d].denom", i))
		}
		if _, err := parseAmount(coin.Amount); err != nil {
			return signing.InvalidTransaction("fee.amount[%d]: %v", i, err)
		}
	}
	switch kt := tx.Signer.keyType(); {
	case kt == KeyTypeSecp256k1 || kt == KeyTypeEd25519:
	case strings.HasPrefix(kt, "/"):
	default:
		return signing.UnsupportedType("cosmos public key type " + kt)
	}
	return nil
}

func parseAmount(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("amount %q is not an integer", s)
	}
	if v.IsNegative() {
		return math.Int{}, fmt.Errorf("amount %q is negative", s)
	}
	return v, nil
}

func (tx *UnsignedTransaction) algorithm() signing.SigningAlgorithm {
	if tx.Signer.keyType() == KeyTypeEd25519 {
		return signing.Ed25519
	}
	return signing.Secp256k1Ecdsa
}
