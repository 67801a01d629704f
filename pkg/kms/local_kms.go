package kms

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
)

// compactHeader 是 SignCompact 输出首字节的基数 (27 + 4，压缩公钥)
const compactHeader = 27 + 4

// keyEntry 是内部存储结构，包含私钥（敏感数据）和元数据
type keyEntry struct {
	Metadata   KeyMetadata
	PrivateKey any // *btcec.PrivateKey or ed25519.PrivateKey
	PublicKey  []byte
}

// LocalKMS 是 KeyManager 接口的本地内存实现。
// 它模拟了一个离线签名设备，私钥存储在内存中，不直接暴露给外部。
type LocalKMS struct {
	mu   sync.RWMutex
	keys map[string]*keyEntry
}

// NewLocalKMS 创建一个新的 LocalKMS 实例。
func NewLocalKMS() *LocalKMS {
	return &LocalKMS{
		keys: make(map[string]*keyEntry),
	}
}

// CreateKey 创建一个新的密钥，并返回其 ID。
func (kms *LocalKMS) CreateKey(kType KeyType) (string, error) {
	switch kType {
	case KeyTypeSecp256k1:
		priv, err := btcec.NewPrivateKey()
		if err != nil {
			return "", fmt.Errorf("生成 secp256k1 密钥失败: %w", err)
		}
		return kms.store(kType, priv, priv.PubKey().SerializeCompressed()), nil

	case KeyTypeEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return "", fmt.Errorf("生成 ed25519 密钥失败: %w", err)
		}
		return kms.store(kType, priv, pub), nil

	default:
		return "", fmt.Errorf("不支持的密钥类型: %s", kType)
	}
}

// ImportKey 导入已有私钥，返回的 ID 只取决于公钥。
func (kms *LocalKMS) ImportKey(kType KeyType, secret []byte) (string, error) {
	switch kType {
	case KeyTypeSecp256k1:
		if len(secret) != btcec.PrivKeyBytesLen {
			return "", fmt.Errorf("%w: secp256k1 私钥需要 32 字节, 实际 %d", ErrInvalidKey, len(secret))
		}
		var scalar btcec.ModNScalar
		if overflow := scalar.SetByteSlice(secret); overflow || scalar.IsZero() {
			return "", fmt.Errorf("%w: 私钥不在曲线阶范围内", ErrInvalidKey)
		}
		priv, pub := btcec.PrivKeyFromBytes(secret)
		return kms.store(kType, priv, pub.SerializeCompressed()), nil

	case KeyTypeEd25519:
		var priv ed25519.PrivateKey
		switch len(secret) {
		case ed25519.SeedSize:
			priv = ed25519.NewKeyFromSeed(secret)
		case ed25519.PrivateKeySize:
			// 64 字节形式: seed || pubkey，重新从 seed 派生以校验后半部分
			priv = ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
			if !priv.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(secret[ed25519.SeedSize:])) {
				return "", fmt.Errorf("%w: ed25519 私钥与公钥不匹配", ErrInvalidKey)
			}
		default:
			return "", fmt.Errorf("%w: ed25519 私钥需要 32 或 64 字节, 实际 %d", ErrInvalidKey, len(secret))
		}
		return kms.store(kType, priv, priv.Public().(ed25519.PublicKey)), nil

	default:
		return "", fmt.Errorf("不支持的密钥类型: %s", kType)
	}
}

func (kms *LocalKMS) store(kType KeyType, priv any, pub []byte) string {
	keyID := hex.EncodeToString(crypto_util.Hash160(pub))

	kms.mu.Lock()
	defer kms.mu.Unlock()

	if _, exists := kms.keys[keyID]; exists {
		return keyID
	}
	kms.keys[keyID] = &keyEntry{
		Metadata: KeyMetadata{
			KeyID:     keyID,
			Type:      kType,
			CreatedAt: time.Now().Unix(),
			Enabled:   true,
		},
		PrivateKey: priv,
		PublicKey:  pub,
	}
	return keyID
}

// entry 查找启用中的密钥，调用方需持有读锁
func (kms *LocalKMS) entry(keyID string) (*keyEntry, error) {
	entry, exists := kms.keys[keyID]
	if !exists {
		return nil, ErrKeyNotFound
	}
	if !entry.Metadata.Enabled {
		return nil, ErrKeyDisabled
	}
	return entry, nil
}

// GetPublicKey 获取指定密钥 ID 的公钥。
func (kms *LocalKMS) GetPublicKey(keyID string) ([]byte, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, err := kms.entry(keyID)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), entry.PublicKey...), nil
}

// Metadata 返回密钥元数据。
func (kms *LocalKMS) Metadata(keyID string) (KeyMetadata, error) {
	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return KeyMetadata{}, ErrKeyNotFound
	}
	return entry.Metadata, nil
}

// SignPreImage 使用指定的密钥对 pre-image 进行签名。
func (kms *LocalKMS) SignPreImage(keyID string, p signing.PreImageHash, opts ...SignOption) (*signing.ExternalSignature, error) {
	o := &signOptions{}
	for _, opt := range opts {
		opt(o)
	}

	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, err := kms.entry(keyID)
	if err != nil {
		return nil, err
	}

	inputIndex := p.InputIndex
	out := &signing.ExternalSignature{
		PublicKey:  append([]byte(nil), entry.PublicKey...),
		InputIndex: &inputIndex,
	}

	switch k := entry.PrivateKey.(type) {
	case *btcec.PrivateKey:
		switch p.Algorithm {
		case signing.Secp256k1Ecdsa:
			compact := ecdsa.SignCompact(k, p.Hash.Bytes(), true)
			recID := compact[0] - compactHeader
			out.Signature = compact[1:]
			out.RecoveryID = &recID

		case signing.Secp256k1Schnorr:
			signer := k
			if !o.tapscript {
				signer = txscript.TweakTaprootPrivKey(*k, nil)
			}
			sig, err := schnorr.Sign(signer, p.Hash.Bytes())
			if err != nil {
				return nil, fmt.Errorf("schnorr 签名失败: %w", err)
			}
			out.Signature = sig.Serialize()
			out.PublicKey = schnorr.SerializePubKey(signer.PubKey())

		default:
			return nil, fmt.Errorf("%w: secp256k1 密钥不能用于 %s", ErrUnsupportedOp, p.Algorithm)
		}

	case ed25519.PrivateKey:
		if p.Algorithm != signing.Ed25519 {
			return nil, fmt.Errorf("%w: ed25519 密钥不能用于 %s", ErrUnsupportedOp, p.Algorithm)
		}
		if len(p.Message) == 0 {
			return nil, ErrMissingMessage
		}
		out.Signature = ed25519.Sign(k, p.Message)

	default:
		return nil, ErrUnsupportedOp
	}

	return out, nil
}

// Verify 验证签名是否有效。
func (kms *LocalKMS) Verify(keyID string, p signing.PreImageHash, sig *signing.ExternalSignature, opts ...SignOption) error {
	o := &signOptions{}
	for _, opt := range opts {
		opt(o)
	}

	kms.mu.RLock()
	defer kms.mu.RUnlock()

	entry, err := kms.entry(keyID)
	if err != nil {
		return err
	}

	var valid bool
	switch k := entry.PrivateKey.(type) {
	case *btcec.PrivateKey:
		switch p.Algorithm {
		case signing.Secp256k1Ecdsa:
			der, err := crypto_util.CompactToDER(sig.Signature)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
			}
			parsed, err := ecdsa.ParseDERSignature(der)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
			}
			valid = parsed.Verify(p.Hash.Bytes(), k.PubKey())

		case signing.Secp256k1Schnorr:
			parsed, err := schnorr.ParseSignature(sig.Signature)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
			}
			pub := k.PubKey()
			if !o.tapscript {
				pub = txscript.ComputeTaprootKeyNoScript(pub)
			}
			valid = parsed.Verify(p.Hash.Bytes(), pub)

		default:
			return ErrUnsupportedOp
		}

	case ed25519.PrivateKey:
		if p.Algorithm != signing.Ed25519 {
			return ErrUnsupportedOp
		}
		if len(p.Message) == 0 {
			return ErrMissingMessage
		}
		valid = ed25519.Verify(k.Public().(ed25519.PublicKey), p.Message, sig.Signature)

	default:
		return ErrUnsupportedOp
	}

	if !valid {
		return ErrInvalidSignature
	}
	return nil
}

// DisableKey 禁用密钥。
func (kms *LocalKMS) DisableKey(keyID string) error {
	kms.mu.Lock()
	defer kms.mu.Unlock()

	entry, exists := kms.keys[keyID]
	if !exists {
		return ErrKeyNotFound
	}
	entry.Metadata.Enabled = false
	return nil
}

var _ KeyManager = (*LocalKMS)(nil)
