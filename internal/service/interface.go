package service

import (
	"context"

	"wallet-signer/pkg/wallet/types"
)

type SigningService interface {
	// PreImages 计算需要外部签名器签名的 pre-image，顺序与输入/签名者顺序一致
	PreImages(ctx context.Context, tx *types.UnsignedTransaction) (*types.PreImageBundle, error)

	// Compile 把外部签名装配进交易，返回可广播的原始交易
	Compile(ctx context.Context, req *types.CompileRequest) (*types.SignedTransaction, error)
}
