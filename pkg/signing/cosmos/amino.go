package cosmos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"wallet-signer/pkg/signing"
)

type aminoCoin struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom"`
}

type aminoFee struct {
	Amount  []aminoCoin `json:"amount"`
	Gas     string      `json:"gas"`
	Payer   string      `json:"payer,omitempty"`
	Granter string      `json:"granter,omitempty"`
}

// aminoSignDoc 字段按字母序声明，嵌套的消息 JSON 由 sortJSON 重新排序
type aminoSignDoc struct {
	AccountNumber string            `json:"account_number"`
	ChainID       string            `json:"chain_id"`
	Fee           aminoFee          `json:"fee"`
	Memo          string            `json:"memo"`
	Msgs          []json.RawMessage `json:"msgs"`
	Sequence      string            `json:"sequence"`
	TimeoutHeight string            `json:"timeout_height,omitempty"`
}

// aminoSignBytes builds the legacy StdSignDoc: compact JSON, keys sorted at
// every level, integers as decimal strings.
func aminoSignBytes(tx *UnsignedTransaction) ([]byte, error) {
	msgs := make([]json.RawMessage, len(tx.Messages))
	for i, m := range tx.Messages {
		if len(m.AminoJSON) == 0 {
			return nil, signing.MissingField(fmt.Sprintf("messages[%d].amino_json", i))
		}
		sorted, err := sortJSON(m.AminoJSON)
		if err != nil {
			return nil, signing.EncodingError("messages[%d].amino_json: %v", i, err)
		}
		msgs[i] = sorted
	}

	coins := make([]aminoCoin, len(tx.Fee.Amount))
	for i, c := range tx.Fee.Amount {
		coins[i] = aminoCoin{Amount: c.Amount, Denom: c.Denom}
	}

	doc := aminoSignDoc{
		AccountNumber: strconv.FormatUint(tx.Signer.AccountNumber, 10),
		ChainID:       tx.ChainID,
		Fee: aminoFee{
			Amount:  coins,
			Gas:     strconv.FormatUint(tx.Fee.GasLimit, 10),
			Payer:   tx.Fee.Payer,
			Granter: tx.Fee.Granter,
		},
		Memo:     tx.Memo,
		Msgs:     msgs,
		Sequence: strconv.FormatUint(tx.Signer.Sequence, 10),
	}
	if tx.TimeoutHeight > 0 {
		doc.TimeoutHeight = strconv.FormatUint(tx.TimeoutHeight, 10)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, signing.EncodingError("amino sign doc: %v", err)
	}
	return out, nil
}

// sortJSON 解码为 map 再编码，encoding/json 会按 key 排序；UseNumber 保留数字原文
func sortJSON(raw []byte) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
