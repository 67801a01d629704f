package cmd

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"wallet-signer/pkg/address"
	"wallet-signer/pkg/config"
	"wallet-signer/pkg/kms"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"
)

// keygenCmd 生成一个开发用私钥，并显示各链地址，方便构造测试交易
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "生成开发用私钥并显示各链地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		keyType, _ := cmd.Flags().GetString("key-type")

		var secret []byte
		switch kms.KeyType(keyType) {
		case kms.KeyTypeSecp256k1:
			priv, err := btcec.NewPrivateKey()
			if err != nil {
				return fmt.Errorf("生成私钥失败: %w", err)
			}
			secret = priv.Serialize()
		case kms.KeyTypeEd25519:
			secret = make([]byte, ed25519.SeedSize)
			if _, err := rand.Read(secret); err != nil {
				return fmt.Errorf("生成种子失败: %w", err)
			}
		default:
			return fmt.Errorf("不支持的密钥类型: %s", keyType)
		}

		km := kms.NewLocalKMS()
		keyID, err := km.ImportKey(kms.KeyType(keyType), secret)
		if err != nil {
			return err
		}
		pub, err := km.GetPublicKey(keyID)
		if err != nil {
			return err
		}

		addrs, err := addressesFor(kms.KeyType(keyType), pub)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "---------------------------------------------------")
		fmt.Fprintf(w, "Key ID:      %s\n", keyID)
		fmt.Fprintf(w, "Private Key: %s\n", hex.EncodeToString(secret))
		fmt.Fprintf(w, "Public Key:  %s\n", hex.EncodeToString(pub))
		fmt.Fprintln(w, "---------------------------------------------------")
		for _, a := range addrs {
			fmt.Fprintf(w, "%-22s %s\n", a[0]+":", a[1])
		}
		fmt.Fprintln(w, "---------------------------------------------------")
		fmt.Fprintln(w, "⚠️  仅用于开发和测试，不要用这个私钥保管真实资产")
		return nil
	},
}

func addressesFor(kType kms.KeyType, pub []byte) ([][2]string, error) {
	cosmosGen := address.NewCosmosGenerator(config.Global.Signer.CosmosHRP)

	if kType == kms.KeyTypeEd25519 {
		sol, err := address.NewSOLGenerator().PubKeyToAddress(pub)
		if err != nil {
			return nil, err
		}
		cosmos, err := cosmosGen.Ed25519PubKeyToAddress(pub)
		if err != nil {
			return nil, err
		}
		return [][2]string{{"Solana", sol}, {"Cosmos (ed25519)", cosmos}}, nil
	}

	network, err := address.NetworkParams(config.Global.Signer.BitcoinNetwork)
	if err != nil {
		return nil, err
	}
	btcGen := address.NewBTCGenerator(network)
	p2pkh, err := btcGen.PubKeyToAddress(pub)
	if err != nil {
		return nil, err
	}
	p2wpkh, err := btcGen.PubKeyToWitnessAddress(pub)
	if err != nil {
		return nil, err
	}
	eth, err := address.NewETHGenerator().PubKeyToAddress(pub)
	if err != nil {
		return nil, err
	}
	cosmos, err := cosmosGen.PubKeyToAddress(pub)
	if err != nil {
		return nil, err
	}
	return [][2]string{
		{"Bitcoin (p2pkh)", p2pkh},
		{"Bitcoin (p2wpkh)", p2wpkh},
		{"Ethereum", eth.Hex()},
		{"Cosmos", cosmos},
	}, nil
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().String("key-type", string(kms.KeyTypeSecp256k1), "密钥类型: Secp256k1 或 Ed25519")
}
