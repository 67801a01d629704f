package signing

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Chain 标识交易所属的链
type Chain string

const (
	ChainBitcoin  Chain = "bitcoin"
	ChainEthereum Chain = "ethereum"
	ChainCosmos   Chain = "cosmos"
	ChainSolana   Chain = "solana"
)

// SigningAlgorithm 告诉外部签名器应使用哪种签名算法
type SigningAlgorithm string

const (
	Secp256k1Ecdsa   SigningAlgorithm = "secp256k1_ecdsa"
	Secp256k1Schnorr SigningAlgorithm = "secp256k1_schnorr"
	Ed25519          SigningAlgorithm = "ed25519"
)

// Digest is a 32-byte hash, hex encoded in JSON.
type Digest [32]byte

func (d Digest) Bytes() []byte { return d[:] }

func (d Digest) Hex() string { return hexutil.Encode(d[:]) }

func (d Digest) IsZero() bool { return d == Digest{} }

func (d Digest) MarshalText() ([]byte, error) {
	return hexutil.Bytes(d[:]).MarshalText()
}

func (d *Digest) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Digest", input, d[:])
}

// PreImageHash 是需要外部签名器签名的值。每个需要独立签名的输入/签名者对应一个。
type PreImageHash struct {
	Hash        Digest           `json:"hash"`
	SignerID    string           `json:"signer_id"`
	Algorithm   SigningAlgorithm `json:"algorithm"`
	InputIndex  int              `json:"input_index"`
	Description string           `json:"description"`

	// Message carries the raw bytes to sign when the algorithm signs the message
	// itself rather than a digest (Ed25519 on Solana).
	Message hexutil.Bytes `json:"message,omitempty"`
}

// ExternalSignature 是外部签名器 (硬件钱包、离线设备、远程 HSM) 返回的结果
type ExternalSignature struct {
	Signature  hexutil.Bytes `json:"signature"`
	PublicKey  hexutil.Bytes `json:"public_key,omitempty"`
	RecoveryID *uint8        `json:"recovery_id,omitempty"`
	InputIndex *int          `json:"input_index,omitempty"`
}

// SignedTransaction is the chain-agnostic result of compilation.
type SignedTransaction struct {
	Chain  Chain         `json:"chain"`
	TxHash string        `json:"tx_hash"`
	RawTx  hexutil.Bytes `json:"raw_tx"`

	WTxID string `json:"wtxid,omitempty"`
	VSize int    `json:"vsize,omitempty"`
	From  string `json:"from,omitempty"`
}

// Transaction 是所有链未签名交易的统一抽象，服务层/CLI 只依赖这个接口
type Transaction interface {
	Chain() Chain
	PreImages() ([]PreImageHash, error)
	Compile(sigs []ExternalSignature) (*SignedTransaction, error)
}

// CheckSignatures enforces count and positional correspondence between the
// pre-images that were produced and the signatures handed back.
func CheckSignatures(sigs []ExternalSignature, want int) error {
	if len(sigs) != want {
		return InvalidSignature("expected %d signature(s), got %d", want, len(sigs))
	}
	for i, sig := range sigs {
		if sig.InputIndex != nil && *sig.InputIndex != i {
			return InvalidSignature("signature at position %d answers input %d", i, *sig.InputIndex)
		}
		if len(sig.Signature) == 0 {
			return InvalidSignature("signature %d is empty", i)
		}
	}
	return nil
}
