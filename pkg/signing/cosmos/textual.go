package cosmos

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"

	"cosmossdk.io/math"
)

// textualSignBytes renders a reduced ADR-050 screen list as newline separated
// "Title: Content" lines. It is not byte compatible with SIGN_MODE_TEXTUAL
// handlers, which CBOR-encode the screens.
func textualSignBytes(tx *UnsignedTransaction, bodyBytes, authInfoBytes []byte) ([]byte, error) {
	var screens []string
	add := func(title, content string) {
		screens = append(screens, title+": "+content)
	}

	add("Chain id", tx.ChainID)
	add("Account number", strconv.FormatUint(tx.Signer.AccountNumber, 10))
	add("Sequence", strconv.FormatUint(tx.Signer.Sequence, 10))
	if tx.Signer.Address != "" {
		add("Address", tx.Signer.Address)
	}
	if len(tx.Signer.PublicKey) > 0 {
		add("Public key", tx.Signer.keyType()+" "+hex.EncodeToString(tx.Signer.PublicKey))
	}

	screens = append(screens, fmt.Sprintf("This transaction has %d Message(s)", len(tx.Messages)))
	for i, m := range tx.Messages {
		add(fmt.Sprintf("Message (%d/%d)", i+1, len(tx.Messages)), m.TypeURL)
	}
	if tx.Memo != "" {
		add("Memo", tx.Memo)
	}

	fees, err := formatCoins(tx.Fee.Amount)
	if err != nil {
		return nil, err
	}
	add("Fees", fees)
	if tx.Fee.Payer != "" {
		add("Fee payer", tx.Fee.Payer)
	}
	if tx.Fee.Granter != "" {
		add("Fee granter", tx.Fee.Granter)
	}
	gas, err := math.FormatInt(strconv.FormatUint(tx.Fee.GasLimit, 10))
	if err != nil {
		return nil, signing.EncodingError("gas limit: %v", err)
	}
	add("Gas limit", gas)
	if tx.TimeoutHeight > 0 {
		add("Timeout height", strconv.FormatUint(tx.TimeoutHeight, 10))
	}

	// 专家模式屏幕: 绑定原始字节，防止渲染结果相同而交易不同
	raw := crypto_util.SHA256(append(append([]byte{}, bodyBytes...), authInfoBytes...))
	add("*Hash of raw bytes", hex.EncodeToString(raw[:]))

	return []byte(strings.Join(screens, "\n")), nil
}

// formatCoins 渲染为 "1'000 uatom, 5 ibc/..."
func formatCoins(coins []Coin) (string, error) {
	if len(coins) == 0 {
		return "0", nil
	}
	parts := make([]string, len(coins))
	for i, c := range coins {
		amount, err := parseAmount(c.Amount)
		if err != nil {
			return "", signing.InvalidTransaction("fee.amount[%d]: %v", i, err)
		}
		formatted, err := math.FormatInt(amount.String())
		if err != nil {
			return "", signing.EncodingError("fee.amount[%d]: %v", i, err)
		}
		parts[i] = formatted + " " + c.Denom
	}
	return strings.Join(parts, ", "), nil
}
