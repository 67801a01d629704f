package handler

import (
	"wallet-signer/internal/handler/request"
	"wallet-signer/internal/handler/response"
	"wallet-signer/internal/service"
	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/validator"

	"github.com/gin-gonic/gin"
)

type SigningHandler struct {
	svc service.SigningService
}

func NewSigningHandler(svc service.SigningService) *SigningHandler {
	return &SigningHandler{svc: svc}
}

// PreImages 计算待签名的 pre-image
// POST /api/v1/preimages
func (h *SigningHandler) PreImages(c *gin.Context) {
	var req request.PreImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	bundle, err := h.svc.PreImages(c.Request.Context(), req.Envelope())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, bundle)
}

// Compile 装配外部签名并返回原始交易
// POST /api/v1/compile
func (h *SigningHandler) Compile(c *gin.Context) {
	var req request.CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	signed, err := h.svc.Compile(c.Request.Context(), req.Envelope())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, signed)
}
