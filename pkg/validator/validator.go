package validator

import (
	"errors"
	"fmt"
	"strings"

	"wallet-signer/pkg/signing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Init 在 gin 的校验器上注册自定义规则
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validate = v
		_ = validate.RegisterValidation("chain", validChain)
	}
}

// validChain 对应 binding:"chain"
func validChain(fl validator.FieldLevel) bool {
	switch signing.Chain(fl.Field().String()) {
	case signing.ChainBitcoin, signing.ChainEthereum, signing.ChainCosmos, signing.ChainSolana:
		return true
	}
	return false
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var errMsgs []string
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			switch tag {
			case "required":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能为空", field))
			case "min":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 至少需要 %s 项", field, param))
			case "max":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能超过 %s 项", field, param))
			case "oneof":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, param))
			case "chain":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不是支持的链", field))
			default:
				errMsgs = append(errMsgs, fmt.Sprintf("%s 校验失败 (%s)", field, tag))
			}
		}
		return strings.Join(errMsgs, "; ")
	}
	return "请求参数错误"
}
