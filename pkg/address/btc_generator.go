package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// BTCGenerator 比特币地址/脚本生成器
type BTCGenerator struct {
	network *chaincfg.Params
}

func NewBTCGenerator(network *chaincfg.Params) *BTCGenerator {
	return &BTCGenerator{network: network}
}

// NetworkParams 按名称返回网络参数 (mainnet, testnet3, regtest, signet)
func NetworkParams(name string) (*chaincfg.Params, error) {
	switch name {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown bitcoin network: %s", name)
	}
}

// PubKeyToAddress 将公钥字节 (压缩格式) 转换为 P2PKH 地址
func (g *BTCGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	addr, err := btcutil.NewAddressPubKey(pubKeyBytes, g.network)
	if err != nil {
		return "", err
	}
	return addr.AddressPubKeyHash().EncodeAddress(), nil
}

// PubKeyToWitnessAddress 将压缩公钥转换为 P2WPKH (bech32) 地址
func (g *BTCGenerator) PubKeyToWitnessAddress(pubKeyBytes []byte) (string, error) {
	addr, err := g.witnessAddress(pubKeyBytes)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// WitnessProgram returns the v0 witness program 0x00 0x14 <hash160(pubkey)>.
// It is the scriptPubKey of a P2WPKH output and the redeem script of a
// P2SH-P2WPKH input.
func (g *BTCGenerator) WitnessProgram(pubKeyBytes []byte) ([]byte, error) {
	addr, err := g.witnessAddress(pubKeyBytes)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

func (g *BTCGenerator) witnessAddress(pubKeyBytes []byte) (*btcutil.AddressWitnessPubKeyHash, error) {
	// BIP-143 只允许压缩公钥
	if len(pubKeyBytes) != 33 {
		return nil, fmt.Errorf("segwit requires a 33-byte compressed public key, got %d bytes", len(pubKeyBytes))
	}
	return btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pubKeyBytes), g.network)
}
