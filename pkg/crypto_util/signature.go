package crypto_util

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// 硬件钱包返回的 ECDSA 签名格式不统一: 比特币需要 DER，以太坊/Cosmos 需要 64 字节 r||s。

var ErrMalformedSignature = errors.New("malformed ecdsa signature")

// CompactToDER converts a 64-byte r||s signature into canonical low-S DER.
func CompactToDER(sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return nil, fmt.Errorf("%w: compact signature must be 64 bytes, got %d", ErrMalformedSignature, len(sig))
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return nil, fmt.Errorf("%w: r out of range", ErrMalformedSignature)
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
		return nil, fmt.Errorf("%w: s out of range", ErrMalformedSignature)
	}
	return ecdsa.NewSignature(&r, &s).Serialize(), nil
}

// DERToCompact parses a DER signature and returns it as 64-byte r||s with S
// normalized to the lower half of the curve order.
func DERToCompact(der []byte) ([]byte, error) {
	parsed, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	// Serialize 输出规范化 (low-S, 最短编码) 的 DER
	canonical := parsed.Serialize()

	// 0x30 <len> 0x02 <rlen> <r> 0x02 <slen> <s>
	rLen := int(canonical[3])
	r := canonical[4 : 4+rLen]
	sLen := int(canonical[5+rLen])
	s := canonical[6+rLen : 6+rLen+sLen]

	out := make([]byte, 64)
	copy(out[32-len(trimZero(r)):32], trimZero(r))
	copy(out[64-len(trimZero(s)):], trimZero(s))
	return out, nil
}

// NormalizeCompact returns a copy of a 64-byte r||s signature with low S.
func NormalizeCompact(sig []byte) ([]byte, error) {
	der, err := CompactToDER(sig)
	if err != nil {
		return nil, err
	}
	return DERToCompact(der)
}

func trimZero(b []byte) []byte {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
