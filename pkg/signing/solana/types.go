package solana

import (
	"bytes"
	"fmt"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/signing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PublicKey 32 字节 ed25519 公钥 / 账户地址，JSON 中为 base58
type PublicKey [32]byte

// Hash is a 32 byte blockhash, base58 in JSON like a PublicKey.
type Hash = PublicKey

func MustPublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := address.NewSOLGenerator().AddressToPubKey(s)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey(raw), nil
}

func (p PublicKey) String() string { return base58.Encode(p[:]) }

func (p PublicKey) IsZero() bool { return p == PublicKey{} }

func (p PublicKey) less(o PublicKey) bool { return bytes.Compare(p[:], o[:]) < 0 }

func (p PublicKey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PublicKey) UnmarshalText(text []byte) error {
	pk, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}

// Version 消息格式
type Version string

const (
	Legacy Version = "legacy"
	V0     Version = "v0"
)

type Signer struct {
	PublicKey      PublicKey `json:"public_key"`
	DerivationPath string    `json:"derivation_path,omitempty"`
}

type AccountMeta struct {
	PublicKey  PublicKey `json:"pubkey"`
	IsSigner   bool      `json:"is_signer"`
	IsWritable bool      `json:"is_writable"`
}

type Instruction struct {
	ProgramID PublicKey     `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      hexutil.Bytes `json:"data"`
}

// AddressLookupTable is the on-chain table state a v0 message may load
// accounts from. Addresses must be the table's current contents.
type AddressLookupTable struct {
	AccountKey PublicKey   `json:"account_key"`
	Addresses  []PublicKey `json:"addresses"`
}

// UnsignedTransaction Signers[0] 为手续费支付者
type UnsignedTransaction struct {
	Version             Version              `json:"version"`
	Signers             []Signer             `json:"signers"`
	Instructions        []Instruction        `json:"instructions"`
	RecentBlockhash     Hash                 `json:"recent_blockhash"`
	AddressLookupTables []AddressLookupTable `json:"address_lookup_tables,omitempty"`
}

func (tx *UnsignedTransaction) version() Version {
	if tx.Version == "" {
		return Legacy
	}
	return tx.Version
}

func (tx *UnsignedTransaction) validate() error {
	switch tx.version() {
	case Legacy:
		if len(tx.AddressLookupTables) > 0 {
			return signing.InvalidTransaction("legacy messages cannot use address lookup tables")
		}
	case V0:
	default:
		return signing.UnsupportedType(fmt.Sprintf("solana message version %q", tx.Version))
	}
	if len(tx.Signers) == 0 {
		return signing.MissingField("signers")
	}
	if tx.RecentBlockhash.IsZero() {
		return signing.MissingField("recent_blockhash")
	}

	seen := make(map[PublicKey]struct{}, len(tx.Signers))
	for i, s := range tx.Signers {
		if _, dup := seen[s.PublicKey]; dup {
			return signing.InvalidTransaction("signer %d (%s) listed twice", i, s.PublicKey)
		}
		seen[s.PublicKey] = struct{}{}
	}
	for i, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if _, ok := seen[meta.PublicKey]; meta.IsSigner && !ok {
				return signing.InvalidTransaction("instruction %d requires signer %s, which is not in signers", i, meta.PublicKey)
			}
		}
	}
	return nil
}
