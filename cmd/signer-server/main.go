package main

import (
	"wallet-signer/internal/handler"
	"wallet-signer/internal/server"
	"wallet-signer/internal/service"
	"wallet-signer/pkg/config"
	"wallet-signer/pkg/logger"
	"wallet-signer/pkg/signing/bitcoin"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 0. 初始化 Config
	config.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env, false)
	defer logger.Sync()

	if config.Global.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 启动时校验默认 sighash，避免每个请求才报错
	if _, err := bitcoin.ParseSigHashType(config.Global.Signer.DefaultSigHash); err != nil {
		logger.Fatal("signer.default_sighash 配置错误", zap.Error(err))
	}

	// 2. 签名服务 (无状态，不持有任何私钥)
	signingService := service.NewSigningService(config.Global.Signer.DefaultSigHash, config.Global.Signer.Workers)

	// 3. HTTP Router
	r := server.NewHTTPRouter(handler.NewSigningHandler(signingService))

	// 4. gRPC Server (health)
	grpcServer, healthServer := server.NewGRPCServer()

	// 5. 启动应用
	cfg := server.Config{
		HttpPort: config.Global.App.HttpPort,
		GrpcPort: config.Global.App.GrpcPort,
	}
	app, err := server.New(cfg, r, grpcServer, healthServer)
	if err != nil {
		logger.Fatal("应用启动失败", zap.Error(err))
	}

	logger.Info("signer-server ready",
		zap.String("env", config.Global.App.Env),
		zap.String("default_sighash", config.Global.Signer.DefaultSigHash),
		zap.Int("workers", config.Global.Signer.Workers),
	)

	// 运行 (阻塞)
	app.Run()
}
