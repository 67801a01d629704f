package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// SOLGenerator Solana 地址就是 base58 编码的 32 字节 ed25519 公钥
type SOLGenerator struct{}

func NewSOLGenerator() *SOLGenerator {
	return &SOLGenerator{}
}

func (g *SOLGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	if len(pubKeyBytes) != 32 {
		return "", fmt.Errorf("solana public key must be 32 bytes, got %d", len(pubKeyBytes))
	}
	return base58.Encode(pubKeyBytes), nil
}

// AddressToPubKey 解码 base58 地址
func (g *SOLGenerator) AddressToPubKey(addr string) ([32]byte, error) {
	var out [32]byte
	raw := base58.Decode(addr)
	if len(raw) != 32 {
		return out, fmt.Errorf("invalid solana address %q", addr)
	}
	copy(out[:], raw)
	return out, nil
}
