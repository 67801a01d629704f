package address

import (
	"crypto/ecdsa"
	"fmt"

	"wallet-signer/pkg/crypto_util"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ETHGenerator 以太坊地址生成器
type ETHGenerator struct{}

func NewETHGenerator() *ETHGenerator {
	return &ETHGenerator{}
}

// PubKeyToAddress 将公钥 (33 字节压缩或 65 字节 0x04 非压缩) 转换为地址。
// common.Address.Hex() 输出 EIP-55 校验和格式。
func (g *ETHGenerator) PubKeyToAddress(pubKeyBytes []byte) (common.Address, error) {
	pub, err := parseSecp256k1(pubKeyBytes)
	if err != nil {
		return common.Address{}, err
	}
	// Keccak-256(X || Y) 取后 20 字节
	hash := crypto_util.Keccak256(crypto.FromECDSAPub(pub)[1:])
	return common.BytesToAddress(hash[12:]), nil
}

func parseSecp256k1(pubKeyBytes []byte) (*ecdsa.PublicKey, error) {
	switch len(pubKeyBytes) {
	case 33:
		return crypto.DecompressPubkey(pubKeyBytes)
	case 65:
		return crypto.UnmarshalPubkey(pubKeyBytes)
	default:
		return nil, fmt.Errorf("invalid secp256k1 public key length: %d", len(pubKeyBytes))
	}
}
