package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Signer SignerConfig `mapstructure:"signer"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
	GrpcPort string `mapstructure:"grpc_port"`
}

// SignerConfig 签名相关的默认值，请求中显式给出的字段优先
type SignerConfig struct {
	BitcoinNetwork string `mapstructure:"bitcoin_network"` // mainnet, testnet3, regtest, signet
	CosmosHRP      string `mapstructure:"cosmos_hrp"`      // keygen 展示的 bech32 前缀
	DefaultSigHash string `mapstructure:"default_sighash"` // 比特币请求未指定 sighash_type 时使用
	Workers        int    `mapstructure:"workers"`         // 并发计算比特币 sighash 的 goroutine 数
}

var Global Config

// Init loads config.yaml from . or ./config, overlaid by environment variables
// (APP_ENV, SIGNER_BITCOIN_NETWORK, ...). A missing file is not an error.
func Init() {
	v := viper.GetViper()
	Load(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := v.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}

// Load 只设置查找路径、环境变量和默认值，不读文件，测试里也可以单独使用
func Load(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_port", "8080")
	v.SetDefault("app.grpc_port", "50051")

	v.SetDefault("signer.bitcoin_network", "mainnet")
	v.SetDefault("signer.cosmos_hrp", "cosmos")
	v.SetDefault("signer.default_sighash", "all")
	v.SetDefault("signer.workers", 8)
}
