package cmd

import (
	"context"
	"fmt"

	"wallet-signer/internal/service"
	"wallet-signer/pkg/config"
	"wallet-signer/pkg/wallet/types"

	"github.com/spf13/cobra"
)

var preimageCmd = &cobra.Command{
	Use:   "preimage",
	Short: "计算待签名的 pre-image",
	Long:  `读取未签名交易 JSON，输出每个输入/签名者需要签名的哈希，并在屏幕上显示交易摘要供人工核对。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")
		outputFile, _ := cmd.Flags().GetString("output")

		var unsignedTx types.UnsignedTransaction
		if err := readJSON(inputFile, &unsignedTx); err != nil {
			return err
		}

		svc := service.NewSigningService(config.Global.Signer.DefaultSigHash, config.Global.Signer.Workers)
		bundle, err := svc.PreImages(context.Background(), &unsignedTx)
		if err != nil {
			return fmt.Errorf("计算 pre-image 失败: %w", err)
		}

		// 显示交易详情供用户确认 (Verify on Screen)
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, "\n================ 待签名交易 ================")
		for _, p := range bundle.PreImages {
			fmt.Fprintf(w, "[%d] %s\n", p.InputIndex, p.Description)
			fmt.Fprintf(w, "    signer: %s  algorithm: %s\n", p.SignerID, p.Algorithm)
			fmt.Fprintf(w, "    hash:   %s\n", p.Hash.Hex())
		}
		fmt.Fprintln(w, "============================================")

		return writeJSON(cmd.OutOrStdout(), outputFile, bundle)
	},
}

func init() {
	rootCmd.AddCommand(preimageCmd)
	preimageCmd.Flags().StringP("input", "i", "unsigned.json", "未签名的交易文件路径")
	preimageCmd.Flags().StringP("output", "o", "preimages.json", "pre-image 输出文件路径 (- 表示标准输出)")
}
