package address

import (
	"fmt"

	"wallet-signer/pkg/crypto_util"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// CosmosGenerator Cosmos SDK 账户地址 (bech32) 生成器
type CosmosGenerator struct {
	hrp string
}

func NewCosmosGenerator(hrp string) *CosmosGenerator {
	if hrp == "" {
		hrp = "cosmos"
	}
	return &CosmosGenerator{hrp: hrp}
}

// PubKeyToAddress 将 secp256k1 压缩公钥转换为 bech32 地址 (RIPEMD160(SHA256(pub)))
func (g *CosmosGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	if len(pubKeyBytes) != 33 {
		return "", fmt.Errorf("cosmos secp256k1 key must be 33 bytes, got %d", len(pubKeyBytes))
	}
	return bech32.EncodeFromBase256(g.hrp, crypto_util.Hash160(pubKeyBytes))
}

// Ed25519PubKeyToAddress 对 ed25519 公钥取 SHA256 前 20 字节
func (g *CosmosGenerator) Ed25519PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	if len(pubKeyBytes) != 32 {
		return "", fmt.Errorf("cosmos ed25519 key must be 32 bytes, got %d", len(pubKeyBytes))
	}
	sum := crypto_util.SHA256(pubKeyBytes)
	return bech32.EncodeFromBase256(g.hrp, sum[:20])
}

// SplitAddress 解析 bech32 地址，返回 hrp 和 20 字节账户地址
func SplitAddress(addr string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeToBase256(addr)
	if err != nil {
		return "", nil, err
	}
	return hrp, data, nil
}
