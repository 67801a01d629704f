package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wallet-signer/pkg/logger"
	"wallet-signer/pkg/monitor"
	"wallet-signer/pkg/signing"
	"wallet-signer/pkg/signing/bitcoin"
	"wallet-signer/pkg/wallet/types"
)

// parallelThreshold 输入少于这个数时逐个计算，goroutine 调度反而更慢
const parallelThreshold = 4

// DefaultSigningService 是 SigningService 的实现。它本身无状态，不保留任何
// pre-image 或签名，可以被多个请求并发使用。
type DefaultSigningService struct {
	defaultSigHash string
	workers        int
}

// NewSigningService 构造函数
func NewSigningService(defaultSigHash string, workers int) *DefaultSigningService {
	if workers <= 0 {
		workers = 1
	}
	return &DefaultSigningService{
		defaultSigHash: defaultSigHash,
		workers:        workers,
	}
}

// PreImages 逻辑:
// 1. 按 chain 解析出 signing.Transaction
// 2. 比特币多输入时并发计算每个输入的 sighash，按下标放回
// 3. 其他链直接调用 PreImages
func (s *DefaultSigningService) PreImages(ctx context.Context, u *types.UnsignedTransaction) (*types.PreImageBundle, error) {
	start := time.Now()
	tx, err := u.Signable(s.defaultSigHash)
	if err != nil {
		s.record(u.Chain, "preimages", start, err)
		return nil, err
	}

	var preImages []signing.PreImageHash
	if btc, ok := tx.(*bitcoin.Signable); ok && len(btc.Tx.Inputs) >= parallelThreshold && s.workers > 1 {
		preImages, err = s.bitcoinPreImages(ctx, btc)
	} else {
		preImages, err = tx.PreImages()
	}
	s.record(tx.Chain(), "preimages", start, err)
	if err != nil {
		logger.Error("计算 pre-image 失败", zap.String("chain", string(tx.Chain())), zap.Error(err))
		return nil, err
	}

	logger.Info("pre-images computed",
		zap.String("chain", string(tx.Chain())),
		zap.Int("count", len(preImages)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &types.PreImageBundle{Chain: tx.Chain(), PreImages: preImages}, nil
}

// bitcoinPreImages 并发计算，每个 goroutine 只写自己的下标，结果天然有序
func (s *DefaultSigningService) bitcoinPreImages(ctx context.Context, btc *bitcoin.Signable) ([]signing.PreImageHash, error) {
	hasher, err := btc.SigHasher()
	if err != nil {
		return nil, err
	}

	out := make([]signing.PreImageHash, hasher.NumInputs())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := hasher.PreImage(i)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Compile 装配签名。签名数量和顺序的校验由各链的 Compile 完成。
func (s *DefaultSigningService) Compile(ctx context.Context, req *types.CompileRequest) (*types.SignedTransaction, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx, err := req.Transaction.Signable(s.defaultSigHash)
	if err != nil {
		s.record(req.Transaction.Chain, "compile", start, err)
		return nil, err
	}

	signed, err := tx.Compile(req.Signatures)
	s.record(tx.Chain(), "compile", start, err)
	if err != nil {
		logger.Error("组装交易失败",
			zap.String("chain", string(tx.Chain())),
			zap.Int("signatures", len(req.Signatures)),
			zap.Error(err),
		)
		return nil, err
	}

	if monitor.Business != nil {
		monitor.Business.SignaturesTotal.WithLabelValues(string(tx.Chain())).Add(float64(len(req.Signatures)))
	}
	logger.Info("transaction compiled",
		zap.String("chain", string(tx.Chain())),
		zap.String("tx_hash", signed.TxHash),
		zap.Int("raw_size", len(signed.RawTx)),
	)
	return signed, nil
}

func (s *DefaultSigningService) record(chain signing.Chain, op string, start time.Time, err error) {
	if monitor.Business == nil {
		return
	}
	label := string(chain)
	if label == "" {
		label = "unknown"
	}
	switch op {
	case "preimages":
		monitor.Business.PreImagesTotal.WithLabelValues(label, monitor.ResultLabel(err)).Inc()
	case "compile":
		monitor.Business.CompileTotal.WithLabelValues(label, monitor.ResultLabel(err)).Inc()
	}
	monitor.Business.OperationDuration.WithLabelValues(label, op).Observe(time.Since(start).Seconds())
}

var _ SigningService = (*DefaultSigningService)(nil)
