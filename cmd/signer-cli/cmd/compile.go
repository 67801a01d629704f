package cmd

import (
	"context"
	"fmt"

	"wallet-signer/internal/service"
	"wallet-signer/pkg/config"
	"wallet-signer/pkg/wallet/types"

	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "把外部签名组装成可广播的交易",
	Long:  `读取未签名交易和签名文件 (签名顺序必须与 pre-image 顺序一致)，输出原始交易与交易哈希。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		txFile, _ := cmd.Flags().GetString("tx")
		sigFile, _ := cmd.Flags().GetString("signatures")
		outputFile, _ := cmd.Flags().GetString("output")

		var req types.CompileRequest
		if err := readJSON(txFile, &req.Transaction); err != nil {
			return err
		}
		var sigs types.SignatureBundle
		if err := readJSON(sigFile, &sigs); err != nil {
			return err
		}
		if sigs.Chain != "" && sigs.Chain != req.Transaction.Chain {
			return fmt.Errorf("签名文件属于 %s，交易属于 %s", sigs.Chain, req.Transaction.Chain)
		}
		req.Signatures = sigs.Signatures

		svc := service.NewSigningService(config.Global.Signer.DefaultSigHash, config.Global.Signer.Workers)
		signed, err := svc.Compile(context.Background(), &req)
		if err != nil {
			return fmt.Errorf("组装交易失败: %w", err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "\n✅ 组装成功!\nTxHash: %s\n", signed.TxHash)
		if signed.VSize > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "vsize:  %d vB\n", signed.VSize)
		}
		return writeJSON(cmd.OutOrStdout(), outputFile, signed)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("tx", "t", "unsigned.json", "未签名的交易文件路径")
	compileCmd.Flags().StringP("signatures", "s", "signatures.json", "签名文件路径")
	compileCmd.Flags().StringP("output", "o", "signed.json", "签名后的输出文件路径 (- 表示标准输出)")
}
