package crypto_util

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil"
	"golang.org/x/crypto/sha3"
)

// SHA256 Cosmos SignDoc / Solana 消息指纹使用的摘要
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Keccak256 计算输入的 Keccak256 哈希值。
// 这是以太坊使用的哈希算法 (不是 NIST SHA3-256)。
func Keccak256(data ...[]byte) [32]byte {
	var out [32]byte
	hash := sha3.NewLegacyKeccak256()
	for _, b := range data {
		hash.Write(b)
	}
	hash.Sum(out[:0])
	return out
}

// Hash160 RIPEMD160(SHA256(x))，用于 P2WPKH 程序和 Cosmos 地址
func Hash160(data []byte) []byte {
	return btcutil.Hash160(data)
}
