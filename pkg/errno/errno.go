package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Coder 由可以自行映射到 Errno 的错误实现 (例如签名核心的 signing.Error)
type Coder interface {
	Errno() Errno
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	case Coder:
		e := typed.Errno()
		return e.Code, e.Message
	default:
		// 被 fmt.Errorf("%w") 包装过的核心错误
		var c Coder
		if errors.As(err, &c) {
			e := c.Errno()
			return e.Code, e.Message
		}
		return InternalServerError.Code, err.Error()
	}
}

// WithMessage 复制一个错误码并替换消息
func (e Errno) WithMessage(msg string) Errno {
	return Errno{Code: e.Code, Message: msg}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrUnsupportedChain = Errno{Code: 10005, Message: "Unsupported chain"}
)

// Signing Errors (30000+)
var (
	ErrInvalidInputIndex  = Errno{Code: 30001, Message: "Invalid input index"}
	ErrInvalidSignature   = Errno{Code: 30002, Message: "Invalid signature"}
	ErrMissingField       = Errno{Code: 30003, Message: "Missing required field"}
	ErrInvalidTransaction = Errno{Code: 30004, Message: "Invalid transaction"}
	ErrUnsupportedType    = Errno{Code: 30005, Message: "Unsupported type"}
	ErrEncoding           = Errno{Code: 30006, Message: "Encoding error"}
	ErrPublicKeyMismatch  = Errno{Code: 30007, Message: "Public key mismatch"}
)
