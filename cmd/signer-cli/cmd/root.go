package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"wallet-signer/pkg/config"
	"wallet-signer/pkg/logger"

	"github.com/spf13/cobra"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "signer-cli",
	Short: "多链离线签名工具",
	Long: `为 Bitcoin / Ethereum / Cosmos / Solana 交易计算待签名的 pre-image，
把外部签名器 (硬件钱包、HSM) 返回的签名组装成可广播的原始交易。

典型流程:
  signer-cli preimage -i unsigned.json -o preimages.json
  signer-cli sign     -i preimages.json -o signatures.json   (仅开发/测试)
  signer-cli compile  -t unsigned.json -s signatures.json -o signed.json`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
		logger.Init(config.Global.App.Env, true)
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return nil
}

// writeJSON 写入文件；path 为 "-" 时输出到 stdout
func writeJSON(out io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("保存结果失败: %w", err)
	}
	return nil
}
