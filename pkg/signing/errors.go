package signing

import (
	"fmt"

	"wallet-signer/pkg/errno"
)

// ErrorKind 区分签名核心的错误类别
type ErrorKind int

const (
	KindInvalidInputIndex ErrorKind = iota + 1
	KindInvalidSignature
	KindMissingField
	KindInvalidTransaction
	KindUnsupportedType
	KindEncoding
	KindPublicKeyMismatch
)

// Error is returned by every pre-image generator and compiler. All failures are
// deterministic validation failures; nothing here is retryable.
type Error struct {
	Kind   ErrorKind
	Index  int    // KindInvalidInputIndex
	Field  string // KindMissingField, KindUnsupportedType
	Reason string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidInputIndex:
		return fmt.Sprintf("invalid input index: %d", e.Index)
	case KindInvalidSignature:
		return "invalid signature: " + e.Reason
	case KindMissingField:
		return "missing field: " + e.Field
	case KindInvalidTransaction:
		return "invalid transaction: " + e.Reason
	case KindUnsupportedType:
		return "unsupported type: " + e.Field
	case KindEncoding:
		return "encoding error: " + e.Reason
	case KindPublicKeyMismatch:
		if e.Reason != "" {
			return "public key mismatch: " + e.Reason
		}
		return "public key mismatch"
	default:
		return "signing error"
	}
}

// Is matches on Kind only, so errors.Is(err, ErrMissingField) holds for any field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Errno 将错误映射为 HTTP 层使用的错误码
func (e *Error) Errno() errno.Errno {
	var base errno.Errno
	switch e.Kind {
	case KindInvalidInputIndex:
		base = errno.ErrInvalidInputIndex
	case KindInvalidSignature:
		base = errno.ErrInvalidSignature
	case KindMissingField:
		base = errno.ErrMissingField
	case KindInvalidTransaction:
		base = errno.ErrInvalidTransaction
	case KindUnsupportedType:
		base = errno.ErrUnsupportedType
	case KindEncoding:
		base = errno.ErrEncoding
	case KindPublicKeyMismatch:
		base = errno.ErrPublicKeyMismatch
	default:
		base = errno.InternalServerError
	}
	return base.WithMessage(e.Error())
}

// Sentinels for errors.Is.
var (
	ErrInvalidInputIndex  = &Error{Kind: KindInvalidInputIndex}
	ErrInvalidSignature   = &Error{Kind: KindInvalidSignature}
	ErrMissingField       = &Error{Kind: KindMissingField}
	ErrInvalidTransaction = &Error{Kind: KindInvalidTransaction}
	ErrUnsupportedType    = &Error{Kind: KindUnsupportedType}
	ErrEncoding           = &Error{Kind: KindEncoding}
	ErrPublicKeyMismatch  = &Error{Kind: KindPublicKeyMismatch}
)

func InvalidInputIndex(idx int) error {
	return &Error{Kind: KindInvalidInputIndex, Index: idx}
}

func InvalidSignature(format string, args ...any) error {
	return &Error{Kind: KindInvalidSignature, Reason: fmt.Sprintf(format, args...)}
}

func MissingField(name string) error {
	return &Error{Kind: KindMissingField, Field: name}
}

func InvalidTransaction(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransaction, Reason: fmt.Sprintf(format, args...)}
}

func UnsupportedType(name string) error {
	return &Error{Kind: KindUnsupportedType, Field: name}
}

func EncodingError(format string, args ...any) error {
	return &Error{Kind: KindEncoding, Reason: fmt.Sprintf(format, args...)}
}

func PublicKeyMismatch(format string, args ...any) error {
	return &Error{Kind: KindPublicKeyMismatch, Reason: fmt.Sprintf(format, args...)}
}
