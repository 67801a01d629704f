package bitcoin

import (
	"bytes"
	"fmt"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// maxDERSignatureLen DER 编码的 secp256k1 签名最长 72 字节
const maxDERSignatureLen = 72

// CompiledTransaction 可直接广播的比特币交易
type CompiledTransaction struct {
	RawTx    []byte
	TxID     chainhash.Hash
	WTxID    *chainhash.Hash // 仅当存在 witness 数据时
	Size     int             // 完整序列化长度
	BaseSize int             // 去掉 witness 的长度
	Weight   int
	VSize    int
}

// Envelope 转换为链无关的结果
func (c *CompiledTransaction) Envelope() *signing.SignedTransaction {
	out := &signing.SignedTransaction{
		Chain:  signing.ChainBitcoin,
		TxHash: c.TxID.String(),
		RawTx:  c.RawTx,
		VSize:  c.VSize,
	}
	if c.WTxID != nil {
		out.WTxID = c.WTxID.String()
	}
	return out
}

// Compile 将外部签名按输入顺序组装为最终交易。hashType 必须与签名时使用的一致。
func Compile(tx *UnsignedTransaction, hashType SigHashType, sigs []signing.ExternalSignature) (*CompiledTransaction, error) {
	if err := validSigHashType(hashType); err != nil {
		return nil, err
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}
	if err := signing.CheckSignatures(sigs, len(tx.Inputs)); err != nil {
		return nil, err
	}

	msg, err := tx.msgTx()
	if err != nil {
		return nil, err
	}

	for i := range tx.Inputs {
		scriptSig, witness, err := unlock(&tx.Inputs[i], i, effectiveSigHash(tx.Inputs[i].InputType, hashType), &sigs[i])
		if err != nil {
			return nil, err
		}
		msg.TxIn[i].SignatureScript = scriptSig
		msg.TxIn[i].Witness = witness
	}

	// 只要有一个输入带 witness，Serialize 就会写入 0x00 0x01 marker/flag
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	if err := msg.Serialize(&buf); err != nil {
		return nil, signing.EncodingError("serialize transaction: %v", err)
	}

	baseSize := msg.SerializeSizeStripped()
	size := msg.SerializeSize()
	weight := baseSize*3 + size

	compiled := &CompiledTransaction{
		RawTx:    buf.Bytes(),
		TxID:     msg.TxHash(),
		Size:     size,
		BaseSize: baseSize,
		Weight:   weight,
		VSize:    (weight + 3) / 4,
	}
	if msg.HasWitness() {
		wtxid := msg.WitnessHash()
		compiled.WTxID = &wtxid
	}
	return compiled, nil
}

// unlock builds the scriptSig and witness stack of one input.
func unlock(in *Input, idx int, hashType SigHashType, sig *signing.ExternalSignature) ([]byte, wire.TxWitness, error) {
	if in.InputType.IsTaproot() {
		schnorrSig, err := taprootSignature(sig.Signature, hashType, idx)
		if err != nil {
			return nil, nil, err
		}
		if in.InputType == P2TRKeyPath {
			return nil, wire.TxWitness{schnorrSig}, nil
		}
		if len(in.ControlBlock) == 0 {
			return nil, nil, signing.MissingField(fmt.Sprintf("inputs[%d].control_block", idx))
		}
		return nil, wire.TxWitness{schnorrSig, in.TapLeafScript, in.ControlBlock}, nil
	}

	ecdsaSig, err := ecdsaSignature(sig.Signature, hashType, idx)
	if err != nil {
		return nil, nil, err
	}
	pubKey := []byte(sig.PublicKey)

	switch in.InputType {
	case P2PKH:
		if err := checkPubKey(pubKey, idx, false); err != nil {
			return nil, nil, err
		}
		scriptSig, err := pushAll(ecdsaSig, pubKey)
		return scriptSig, nil, err

	case P2WPKH:
		if _, err := witnessRedeem(in.ScriptCode, pubKey, idx); err != nil {
			return nil, nil, err
		}
		return nil, wire.TxWitness{ecdsaSig, pubKey}, nil

	case P2SHP2WPKH:
		redeem, err := witnessRedeem(in.ScriptCode, pubKey, idx)
		if err != nil {
			return nil, nil, err
		}
		scriptSig, err := pushAll(redeem)
		return scriptSig, wire.TxWitness{ecdsaSig, pubKey}, err

	case P2SH:
		stack, err := scriptStack(in.ScriptCode, ecdsaSig, pubKey, idx)
		if err != nil {
			return nil, nil, err
		}
		scriptSig, err := pushAll(append(stack, in.ScriptCode)...)
		return scriptSig, nil, err

	case P2WSH:
		stack, err := scriptStack(in.ScriptCode, ecdsaSig, pubKey, idx)
		if err != nil {
			return nil, nil, err
		}
		return nil, append(wire.TxWitness(stack), in.ScriptCode), nil
	}
	return nil, nil, signing.UnsupportedType(string(in.InputType))
}

// witnessRedeem 返回公钥对应的 P2WPKH 见证程序。script_code 不论是 0014<h> 还是
// 76a914<h>88ac 形式，其中的 hash 必须与公钥一致
func witnessRedeem(scriptCode, pubKey []byte, idx int) ([]byte, error) {
	if err := checkPubKey(pubKey, idx, true); err != nil {
		return nil, err
	}
	redeem, err := address.NewBTCGenerator(&chaincfg.MainNetParams).WitnessProgram(pubKey)
	if err != nil {
		return nil, signing.InvalidSignature("input %d: %v", idx, err)
	}
	if program, ok := witnessPubKeyHashProgram(scriptCode); ok && !bytes.Equal(program, redeem) {
		return nil, signing.PublicKeyMismatch("input %d: public key does not hash to the witness program", idx)
	}
	return redeem, nil
}

// scriptStack returns the items that satisfy a P2SH redeem script or P2WSH
// witness script with a single signature.
func scriptStack(script, sig, pubKey []byte, idx int) ([][]byte, error) {
	switch txscript.GetScriptClass(script) {
	case txscript.MultiSigTy:
		_, required, err := txscript.CalcMultiSigStats(script)
		if err != nil {
			return nil, signing.EncodingError("input %d: %v", idx, err)
		}
		if required != 1 {
			return nil, signing.UnsupportedType(fmt.Sprintf("input %d: %d-of-n multisig needs more than one signature", idx, required))
		}
		// OP_CHECKMULTISIG 多弹出一个元素
		return [][]byte{{}, sig}, nil
	case txscript.PubKeyTy:
		return [][]byte{sig}, nil
	default:
		if err := checkPubKey(pubKey, idx, false); err != nil {
			return nil, err
		}
		return [][]byte{sig, pubKey}, nil
	}
}

func ecdsaSignature(raw []byte, hashType SigHashType, idx int) ([]byte, error) {
	der := raw
	if len(raw) == 64 {
		var err error
		if der, err = crypto_util.CompactToDER(raw); err != nil {
			return nil, signing.InvalidSignature("input %d: %v", idx, err)
		}
	}
	if len(der) < 8 || len(der) > maxDERSignatureLen {
		return nil, signing.InvalidSignature("input %d: DER signature length %d out of range", idx, len(der))
	}
	out := make([]byte, 0, len(der)+1)
	out = append(out, der...)
	return append(out, byte(hashType)), nil
}

func taprootSignature(raw []byte, hashType SigHashType, idx int) ([]byte, error) {
	if len(raw) != 64 {
		return nil, signing.InvalidSignature("input %d: schnorr signature must be 64 bytes, got %d", idx, len(raw))
	}
	out := make([]byte, 0, 65)
	out = append(out, raw...)
	if hashType != SigHashDefault {
		out = append(out, byte(hashType))
	}
	return out, nil
}

func checkPubKey(pubKey []byte, idx int, compressedOnly bool) error {
	switch {
	case len(pubKey) == 0:
		return signing.MissingField(fmt.Sprintf("signatures[%d].public_key", idx))
	case len(pubKey) == 33:
		return nil
	case len(pubKey) == 65 && !compressedOnly:
		return nil
	}
	return signing.InvalidSignature("input %d: public key length %d", idx, len(pubKey))
}

func pushAll(items ...[]byte) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	for _, item := range items {
		b.AddData(item)
	}
	script, err := b.Script()
	if err != nil {
		return nil, signing.EncodingError("build scriptSig: %v", err)
	}
	return script, nil
}
