package bitcoin

import (
	"errors"
	"fmt"
	"strings"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// InputType 决定签名哈希算法以及 scriptSig/witness 的构造方式
type InputType string

const (
	P2PKH          InputType = "p2pkh"
	P2SH           InputType = "p2sh"
	P2WPKH         InputType = "p2wpkh"
	P2WSH          InputType = "p2wsh"
	P2SHP2WPKH     InputType = "p2sh-p2wpkh"
	P2TRKeyPath    InputType = "p2tr-keypath"
	P2TRScriptPath InputType = "p2tr-scriptpath"
)

func (t InputType) valid() bool {
	switch t {
	case P2PKH, P2SH, P2WPKH, P2WSH, P2SHP2WPKH, P2TRKeyPath, P2TRScriptPath:
		return true
	}
	return false
}

// IsTaproot reports whether the input is spent with a BIP-340 Schnorr signature.
func (t InputType) IsTaproot() bool {
	return t == P2TRKeyPath || t == P2TRScriptPath
}

// IsSegwitV0 reports whether the input uses the BIP-143 sighash.
func (t InputType) IsSegwitV0() bool {
	return t == P2WPKH || t == P2WSH || t == P2SHP2WPKH
}

// HasWitness 隔离见证与 Taproot 输入需要 witness 数据
func (t InputType) HasWitness() bool {
	return t.IsSegwitV0() || t.IsTaproot()
}

// SigHashType is the byte committed to by every signature.
type SigHashType = txscript.SigHashType

const (
	SigHashDefault      = txscript.SigHashDefault
	SigHashAll          = txscript.SigHashAll
	SigHashNone         = txscript.SigHashNone
	SigHashSingle       = txscript.SigHashSingle
	SigHashAnyOneCanPay = txscript.SigHashAnyOneCanPay

	sigHashMask = 0x1f
)

// ParseSigHashType accepts names like "all", "single|anyonecanpay" or "0x83".
func ParseSigHashType(s string) (SigHashType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch strings.ReplaceAll(strings.ReplaceAll(name, "_", ""), "sighash", "") {
	case "", "all":
		return SigHashAll, nil
	case "default":
		return SigHashDefault, nil
	case "none":
		return SigHashNone, nil
	case "single":
		return SigHashSingle, nil
	case "all|anyonecanpay":
		return SigHashAll | SigHashAnyOneCanPay, nil
	case "none|anyonecanpay":
		return SigHashNone | SigHashAnyOneCanPay, nil
	case "single|anyonecanpay":
		return SigHashSingle | SigHashAnyOneCanPay, nil
	}
	var v uint8
	if _, err := fmt.Sscanf(name, "0x%x", &v); err == nil {
		if err := validSigHashType(SigHashType(v)); err != nil {
			return 0, err
		}
		return SigHashType(v), nil
	}
	return 0, signing.UnsupportedType("sighash " + s)
}

func validSigHashType(t SigHashType) error {
	switch t {
	case SigHashDefault, SigHashAll, SigHashNone, SigHashSingle,
		SigHashAll | SigHashAnyOneCanPay, SigHashNone | SigHashAnyOneCanPay, SigHashSingle | SigHashAnyOneCanPay:
		return nil
	}
	return signing.UnsupportedType(fmt.Sprintf("sighash 0x%02x", uint8(t)))
}

// effectiveSigHash maps SIGHASH_DEFAULT onto SIGHASH_ALL for ECDSA inputs, which
// have no implicit default.
func effectiveSigHash(t InputType, hashType SigHashType) SigHashType {
	if hashType == SigHashDefault && !t.IsTaproot() {
		return SigHashAll
	}
	return hashType
}

// Input 待花费的 UTXO
type Input struct {
	TxID       string        `json:"txid"` // 区块浏览器显示的大端 hex
	Vout       uint32        `json:"vout"`
	ScriptCode hexutil.Bytes `json:"script_code"`
	Value      int64         `json:"value"` // satoshis
	Sequence   uint32        `json:"sequence"`
	InputType  InputType     `json:"input_type"`

	DerivationPath string `json:"derivation_path,omitempty"`

	// ScriptPubKey is the prevout script. Taproot sighashes commit to every
	// prevout script; when empty it is derived from ScriptCode.
	ScriptPubKey hexutil.Bytes `json:"script_pubkey,omitempty"`

	// Script path spends only.
	TapLeafScript hexutil.Bytes `json:"tap_leaf_script,omitempty"`
	ControlBlock  hexutil.Bytes `json:"control_block,omitempty"`
}

// prevScript 返回被花费输出的 scriptPubKey。未显式给出时按输入类型从
// ScriptCode 推导: P2SH 类为 redeem script 的 hash，P2WSH 为 witness script 的 sha256。
func (in *Input) prevScript() ([]byte, error) {
	if len(in.ScriptPubKey) > 0 {
		return in.ScriptPubKey, nil
	}
	switch in.InputType {
	case P2PKH, P2TRKeyPath, P2TRScriptPath:
		if len(in.ScriptCode) > 0 {
			return in.ScriptCode, nil
		}
	case P2WPKH:
		if program, ok := witnessPubKeyHashProgram(in.ScriptCode); ok {
			return program, nil
		}
	case P2SHP2WPKH:
		if program, ok := witnessPubKeyHashProgram(in.ScriptCode); ok {
			return payToScriptHash(program)
		}
	case P2SH:
		if len(in.ScriptCode) > 0 {
			return payToScriptHash(in.ScriptCode)
		}
	case P2WSH:
		if len(in.ScriptCode) > 0 {
			sum := crypto_util.SHA256(in.ScriptCode)
			return txscript.NewScriptBuilder().AddOp(txscript.OP_0).AddData(sum[:]).Script()
		}
	}
	return nil, errNoPrevScript
}

var errNoPrevScript = errors.New("prevout script cannot be derived")

// witnessPubKeyHashProgram 接受 0014<h> 或 BIP-143 script code 形式 76a914<h>88ac
func witnessPubKeyHashProgram(script []byte) ([]byte, bool) {
	switch {
	case txscript.IsPayToWitnessPubKeyHash(script):
		return script, true
	case txscript.IsPayToPubKeyHash(script):
		program, err := txscript.NewScriptBuilder().AddOp(txscript.OP_0).AddData(script[3:23]).Script()
		return program, err == nil
	}
	return nil, false
}

func payToScriptHash(redeem []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(crypto_util.Hash160(redeem)).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// Output 交易输出
type Output struct {
	Value        int64         `json:"value"`
	ScriptPubKey hexutil.Bytes `json:"script_pubkey"`
}

// UnsignedTransaction 待签名的比特币交易快照
type UnsignedTransaction struct {
	Version  int32    `json:"version"`
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	LockTime uint32   `json:"locktime"`
}

// HasWitness reports whether the signed transaction will carry witness data.
func (tx *UnsignedTransaction) HasWitness() bool {
	for _, in := range tx.Inputs {
		if in.InputType.HasWitness() {
			return true
		}
	}
	return false
}

func (tx *UnsignedTransaction) validate() error {
	if len(tx.Inputs) == 0 {
		return signing.MissingField("inputs")
	}
	if len(tx.Outputs) == 0 {
		return signing.MissingField("outputs")
	}
	for i, in := range tx.Inputs {
		if !in.InputType.valid() {
			return signing.UnsupportedType(fmt.Sprintf("input %d type %q", i, in.InputType))
		}
		if in.Value < 0 {
			return signing.InvalidTransaction("input %d has negative value", i)
		}
		if in.InputType.IsTaproot() {
			prev, err := in.prevScript()
			if err != nil || !txscript.IsPayToTaproot(prev) {
				return signing.InvalidTransaction("input %d: taproot prevout script is not P2TR", i)
			}
		}
		if in.InputType == P2TRScriptPath && len(in.TapLeafScript) == 0 {
			return signing.MissingField(fmt.Sprintf("inputs[%d].tap_leaf_script", i))
		}
		if !in.InputType.IsTaproot() && len(in.ScriptCode) == 0 {
			return signing.MissingField(fmt.Sprintf("inputs[%d].script_code", i))
		}
	}
	for i, out := range tx.Outputs {
		if out.Value < 0 {
			return signing.InvalidTransaction("output %d has negative value", i)
		}
	}
	// taproot sighash 对所有 prevout 脚本做承诺，必须都能确定
	if tx.hasTaproot() {
		for i := range tx.Inputs {
			if _, err := tx.Inputs[i].prevScript(); err != nil {
				return signing.MissingField(fmt.Sprintf("inputs[%d].script_pubkey", i))
			}
		}
	}
	return nil
}

func (tx *UnsignedTransaction) hasTaproot() bool {
	for _, in := range tx.Inputs {
		if in.InputType.IsTaproot() {
			return true
		}
	}
	return false
}

// msgTx 转换为 btcd 的 wire.MsgTx (不含签名)
func (tx *UnsignedTransaction) msgTx() (*wire.MsgTx, error) {
	msg := wire.NewMsgTx(tx.Version)
	msg.LockTime = tx.LockTime

	for i, in := range tx.Inputs {
		if len(in.TxID) != chainhash.MaxHashStringSize {
			return nil, signing.InvalidTransaction("input %d: txid must be %d hex chars", i, chainhash.MaxHashStringSize)
		}
		hash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, signing.InvalidTransaction("input %d: %v", i, err)
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil)
		txIn.Sequence = in.Sequence
		msg.AddTxIn(txIn)
	}
	for _, out := range tx.Outputs {
		msg.AddTxOut(wire.NewTxOut(out.Value, out.ScriptPubKey))
	}
	return msg, nil
}

// prevOutFetcher 为 BIP-143/BIP-341 中间状态提供所有被花费的输出
func (tx *UnsignedTransaction) prevOutFetcher(msg *wire.MsgTx) *txscript.MultiPrevOutFetcher {
	fetcher := txscript.NewMultiPrevOutFetcher(make(map[wire.OutPoint]*wire.TxOut, len(tx.Inputs)))
	for i, in := range tx.Inputs {
		// 非 taproot 交易的 sighash 不读取 prevout 脚本，推导失败时沿用 ScriptCode
		script, err := in.prevScript()
		if err != nil {
			script = in.ScriptCode
		}
		fetcher.AddPrevOut(msg.TxIn[i].PreviousOutPoint, wire.NewTxOut(in.Value, script))
	}
	return fetcher
}
