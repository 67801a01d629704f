package kms

import (
	"errors"

	"wallet-signer/pkg/signing"
)

// KeyType 定义了支持的密钥类型
type KeyType string

const (
	KeyTypeSecp256k1 KeyType = "Secp256k1" // 比特币/以太坊/Cosmos
	KeyTypeEd25519   KeyType = "Ed25519"   // Solana 等
)

// KeyMetadata 包含密钥的元数据，不包含敏感的私钥信息
type KeyMetadata struct {
	KeyID     string  `json:"key_id"`     // 公钥的 hash160，同一私钥导入多次得到同一个 ID
	Type      KeyType `json:"type"`       // 密钥类型
	CreatedAt int64   `json:"created_at"` // 创建时间戳
	Enabled   bool    `json:"enabled"`    // 是否启用
}

// KeyManager 模拟外部签名器 (硬件钱包、HSM)。签名核心本身从不持有私钥，
// 只有 CLI 的 sign 命令和测试通过这个接口产生 ExternalSignature。
type KeyManager interface {
	// CreateKey 创建一个新的密钥，并返回其 ID。
	CreateKey(kType KeyType) (string, error)

	// ImportKey 导入 32 字节 secp256k1 私钥或 ed25519 种子。
	ImportKey(kType KeyType, secret []byte) (string, error)

	// GetPublicKey 返回压缩的 secp256k1 公钥或 32 字节 ed25519 公钥。
	GetPublicKey(keyID string) ([]byte, error)

	// SignPreImage 按 PreImageHash.Algorithm 选择签名算法。
	SignPreImage(keyID string, p signing.PreImageHash, opts ...SignOption) (*signing.ExternalSignature, error)

	// Verify 验证签名是否有效。
	Verify(keyID string, p signing.PreImageHash, sig *signing.ExternalSignature, opts ...SignOption) error

	// DisableKey 禁用后密钥不能再签名。
	DisableKey(keyID string) error
}

type signOptions struct {
	tapscript bool
}

// SignOption adjusts how a pre-image is signed.
type SignOption func(*signOptions)

// WithTapscript signs BIP-340 pre-images with the untweaked key, as a
// p2tr-scriptpath leaf expects. Without it the BIP-86 key path tweak is applied.
func WithTapscript() SignOption {
	return func(o *signOptions) { o.tapscript = true }
}

var (
	ErrKeyNotFound      = errors.New("密钥未找到")
	ErrKeyDisabled      = errors.New("密钥已禁用")
	ErrUnsupportedOp    = errors.New("该密钥类型不支持此操作")
	ErrInvalidSignature = errors.New("签名无效")
	ErrInvalidKey       = errors.New("私钥格式错误")
	ErrMissingMessage   = errors.New("ed25519 签名需要原始消息")
)
