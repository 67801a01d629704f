package solana

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"
)

// versionPrefix marks a versioned message; legacy messages start with the header.
const versionPrefix = 0x80

type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// MessageAddressTableLookup 从某个查找表加载的账户下标
type MessageAddressTableLookup struct {
	AccountKey      PublicKey
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// Message is a compiled Solana message. Its serialization is what every
// signer signs.
type Message struct {
	Version             Version
	Header              MessageHeader
	AccountKeys         []PublicKey // 静态账户表
	RecentBlockhash     Hash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// Signers returns the signer keys in account-table order.
func (m *Message) Signers() []PublicKey {
	return m.AccountKeys[:m.Header.NumRequiredSignatures]
}

// Serialize 按 Solana wire 格式编码消息
func (m *Message) Serialize() []byte {
	var buf bytes.Buffer
	if m.Version == V0 {
		buf.WriteByte(versionPrefix)
	}
	buf.WriteByte(m.Header.NumRequiredSignatures)
	buf.WriteByte(m.Header.NumReadonlySignedAccounts)
	buf.WriteByte(m.Header.NumReadonlyUnsignedAccounts)

	writeCompactU16(&buf, len(m.AccountKeys))
	for _, k := range m.AccountKeys {
		buf.Write(k[:])
	}
	buf.Write(m.RecentBlockhash[:])

	writeCompactU16(&buf, len(m.Instructions))
	for _, ix := range m.Instructions {
		buf.WriteByte(ix.ProgramIDIndex)
		writeCompactU16(&buf, len(ix.Accounts))
		buf.Write(ix.Accounts)
		writeCompactU16(&buf, len(ix.Data))
		buf.Write(ix.Data)
	}

	if m.Version == V0 {
		writeCompactU16(&buf, len(m.AddressTableLookups))
		for _, l := range m.AddressTableLookups {
			buf.Write(l.AccountKey[:])
			writeCompactU16(&buf, len(l.WritableIndexes))
			buf.Write(l.WritableIndexes)
			writeCompactU16(&buf, len(l.ReadonlyIndexes))
			buf.Write(l.ReadonlyIndexes)
		}
	}
	return buf.Bytes()
}

// writeCompactU16 Solana 的 short_vec 长度编码，每字节 7 位，最多 3 字节
func writeCompactU16(buf *bytes.Buffer, n int) {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

type keyMeta struct {
	signer   bool
	writable bool
	invoked  bool
}

// compiledKeys 汇总所有账户的权限，同一账户在多处出现时取并集
type compiledKeys struct {
	payer PublicKey
	metas map[PublicKey]*keyMeta
}

func newCompiledKeys(tx *UnsignedTransaction) *compiledKeys {
	ck := &compiledKeys{payer: tx.Signers[0].PublicKey, metas: make(map[PublicKey]*keyMeta)}
	get := func(k PublicKey) *keyMeta {
		m, ok := ck.metas[k]
		if !ok {
			m = &keyMeta{}
			ck.metas[k] = m
		}
		return m
	}

	payer := get(ck.payer)
	payer.signer, payer.writable = true, true
	for _, s := range tx.Signers {
		get(s.PublicKey).signer = true
	}
	for _, ix := range tx.Instructions {
		get(ix.ProgramID).invoked = true
		for _, a := range ix.Accounts {
			m := get(a.PublicKey)
			m.signer = m.signer || a.IsSigner
			m.writable = m.writable || a.IsWritable
		}
	}
	return ck
}

// group returns the keys matching the predicate sorted by bytes, payer excluded.
func (ck *compiledKeys) group(match func(*keyMeta) bool) []PublicKey {
	var keys []PublicKey
	for k, m := range ck.metas {
		if k != ck.payer && match(m) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// CompileMessage builds the account table and compiles instructions into it.
func CompileMessage(tx *UnsignedTransaction) (*Message, error) {
	if err := tx.validate(); err != nil {
		return nil, err
	}
	ck := newCompiledKeys(tx)

	writableSigners := append([]PublicKey{ck.payer}, ck.group(func(m *keyMeta) bool { return m.signer && m.writable })...)
	readonlySigners := ck.group(func(m *keyMeta) bool { return m.signer && !m.writable })
	writableNonSigners := ck.group(func(m *keyMeta) bool { return !m.signer && m.writable })
	readonlyNonSigners := ck.group(func(m *keyMeta) bool { return !m.signer && !m.writable })

	// v0: 非签名、非程序账户可以从查找表加载
	var (
		lookups        []MessageAddressTableLookup
		loadedWritable []PublicKey
		loadedReadonly []PublicKey
	)
	for t, table := range tx.AddressLookupTables {
		l := MessageAddressTableLookup{AccountKey: table.AccountKey}
		var (
			drained []PublicKey
			err     error
		)
		l.WritableIndexes, drained, writableNonSigners, err = ck.drainFromTable(writableNonSigners, table, t)
		if err != nil {
			return nil, err
		}
		loadedWritable = append(loadedWritable, drained...)
		l.ReadonlyIndexes, drained, readonlyNonSigners, err = ck.drainFromTable(readonlyNonSigners, table, t)
		if err != nil {
			return nil, err
		}
		loadedReadonly = append(loadedReadonly, drained...)
		if len(l.WritableIndexes) > 0 || len(l.ReadonlyIndexes) > 0 {
			lookups = append(lookups, l)
		}
	}

	static := make([]PublicKey, 0, len(ck.metas))
	static = append(static, writableSigners...)
	static = append(static, readonlySigners...)
	static = append(static, writableNonSigners...)
	static = append(static, readonlyNonSigners...)

	// 指令中的账户下标按 静态表 + 可写加载 + 只读加载 的顺序解析
	index := make(map[PublicKey]int, len(ck.metas))
	for i, k := range static {
		index[k] = i
	}
	for i, k := range loadedWritable {
		index[k] = len(static) + i
	}
	for i, k := range loadedReadonly {
		index[k] = len(static) + len(loadedWritable) + i
	}
	if len(index) > math.MaxUint8+1 {
		return nil, signing.InvalidTransaction("message references %d accounts, at most 256 are addressable", len(index))
	}
	// header 用 u8 记录签名者数量
	if n := len(writableSigners) + len(readonlySigners); n > math.MaxUint8 {
		return nil, signing.InvalidTransaction("message requires %d signatures, at most 255 are supported", n)
	}

	instructions := make([]CompiledInstruction, len(tx.Instructions))
	for i, ix := range tx.Instructions {
		accounts := make([]uint8, len(ix.Accounts))
		for j, a := range ix.Accounts {
			accounts[j] = uint8(index[a.PublicKey])
		}
		instructions[i] = CompiledInstruction{
			ProgramIDIndex: uint8(index[ix.ProgramID]),
			Accounts:       accounts,
			Data:           ix.Data,
		}
	}

	return &Message{
		Version: tx.version(),
		Header: MessageHeader{
			NumRequiredSignatures:       uint8(len(writableSigners) + len(readonlySigners)),
			NumReadonlySignedAccounts:   uint8(len(readonlySigners)),
			NumReadonlyUnsignedAccounts: uint8(len(readonlyNonSigners)),
		},
		AccountKeys:         static,
		RecentBlockhash:     tx.RecentBlockhash,
		Instructions:        instructions,
		AddressTableLookups: lookups,
	}, nil
}

// drainFromTable 按 keys 的排序顺序在查找表中定位账户，返回表内下标、被加载的账户以及剩余账户。
// 被调用的程序必须留在静态账户表中
func (ck *compiledKeys) drainFromTable(keys []PublicKey, table AddressLookupTable, t int) ([]uint8, []PublicKey, []PublicKey, error) {
	var (
		indexes   []uint8
		drained   []PublicKey
		remaining []PublicKey
	)
	for _, k := range keys {
		pos := -1
		if !ck.metas[k].invoked {
			pos = indexOf(table.Addresses, k)
		}
		if pos < 0 {
			remaining = append(remaining, k)
			continue
		}
		if pos > math.MaxUint8 {
			return nil, nil, nil, signing.InvalidTransaction("lookup table %d: address index %d exceeds 255", t, pos)
		}
		indexes = append(indexes, uint8(pos))
		drained = append(drained, k)
	}
	return indexes, drained, remaining, nil
}

func indexOf(keys []PublicKey, k PublicKey) int {
	for i, key := range keys {
		if key == k {
			return i
		}
	}
	return -1
}

var _ signing.Transaction = (*UnsignedTransaction)(nil)

func (tx *UnsignedTransaction) Chain() signing.Chain { return signing.ChainSolana }

// PreImages 每个签名者一条，Message 为完整消息 (ed25519 直接签名消息本身)
func (tx *UnsignedTransaction) PreImages() ([]signing.PreImageHash, error) {
	msg, err := CompileMessage(tx)
	if err != nil {
		return nil, err
	}
	raw := msg.Serialize()
	fingerprint := crypto_util.SHA256(raw)

	out := make([]signing.PreImageHash, len(tx.Signers))
	for i, s := range tx.Signers {
		signerID := s.DerivationPath
		if signerID == "" {
			signerID = s.PublicKey.String()
		}
		out[i] = signing.PreImageHash{
			Hash:        fingerprint,
			SignerID:    signerID,
			Algorithm:   signing.Ed25519,
			InputIndex:  i,
			Description: fmt.Sprintf("Solana %s tx: %d instruction(s), signer %d", msg.Version, len(tx.Instructions), i+1),
			Message:     raw,
		}
	}
	return out, nil
}
