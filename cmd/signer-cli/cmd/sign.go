package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"wallet-signer/pkg/kms"
	"wallet-signer/pkg/wallet/types"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "用本地私钥签名 pre-image (开发/测试用)",
	Long: `模拟外部签名器: 读取 pre-image 文件，用给定私钥逐条签名，输出签名文件。
私钥可以通过 --key 传入，不传时从终端隐藏输入。生产环境应使用硬件钱包或 HSM。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")
		outputFile, _ := cmd.Flags().GetString("output")
		keyHex, _ := cmd.Flags().GetString("key")
		keyType, _ := cmd.Flags().GetString("key-type")
		tapscript, _ := cmd.Flags().GetBool("tapscript")

		var bundle types.PreImageBundle
		if err := readJSON(inputFile, &bundle); err != nil {
			return err
		}

		if keyHex == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "请输入私钥 (hex): ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("读取私钥失败: %w", err)
			}
			keyHex = string(raw)
		}
		secret, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
		if err != nil {
			return fmt.Errorf("私钥不是合法的 hex: %w", err)
		}

		km := kms.NewLocalKMS()
		keyID, err := km.ImportKey(kms.KeyType(keyType), secret)
		if err != nil {
			return fmt.Errorf("导入私钥失败: %w", err)
		}

		var opts []kms.SignOption
		if tapscript {
			opts = append(opts, kms.WithTapscript())
		}

		out := types.SignatureBundle{Chain: bundle.Chain}
		for _, p := range bundle.PreImages {
			sig, err := km.SignPreImage(keyID, p, opts...)
			if err != nil {
				return fmt.Errorf("签名第 %d 条 pre-image 失败: %w", p.InputIndex, err)
			}
			out.Signatures = append(out.Signatures, *sig)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "已用密钥 %s 签名 %d 条 pre-image\n", keyID, len(out.Signatures))
		return writeJSON(cmd.OutOrStdout(), outputFile, out)
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringP("input", "i", "preimages.json", "pre-image 文件路径")
	signCmd.Flags().StringP("output", "o", "signatures.json", "签名输出文件路径 (- 表示标准输出)")
	signCmd.Flags().StringP("key", "k", "", "私钥 hex (不传则从终端输入)")
	signCmd.Flags().String("key-type", string(kms.KeyTypeSecp256k1), "密钥类型: Secp256k1 或 Ed25519")
	signCmd.Flags().Bool("tapscript", false, "Schnorr 签名使用未 tweak 的私钥 (p2tr-scriptpath)")
}
