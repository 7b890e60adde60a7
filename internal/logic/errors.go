package logic

import (
	"errors"
	"fmt"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
)

// ErrorKind 业务错误分类
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindEligibility
	KindReplay
	KindConflict
	KindVerification
	KindChainUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindEligibility:
		return "eligibility"
	case KindReplay:
		return "replay"
	case KindConflict:
		return "conflict"
	case KindVerification:
		return "verification"
	case KindChainUnavailable:
		return "chain_unavailable"
	default:
		return "internal"
	}
}

// ClaimError 带分类的业务错误
type ClaimError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ClaimError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ClaimError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...interface{}) *ClaimError {
	return &ClaimError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, message string) *ClaimError {
	return &ClaimError{Kind: kind, Message: message, Err: err}
}

// KindOf 错误分类，非 ClaimError 视为内部错误
func KindOf(err error) ErrorKind {
	var claimErr *ClaimError
	if errors.As(err, &claimErr) {
		return claimErr.Kind
	}
	return KindInternal
}

// chainError 链上错误统一映射
func chainError(err error) *ClaimError {
	switch {
	case errors.Is(err, chain.ErrChainUnavailable):
		return wrapError(KindChainUnavailable, err, "链上服务暂不可用，请稍后重试")
	case errors.Is(err, chain.ErrTxNotFound):
		return wrapError(KindVerification, err, "交易不存在")
	case errors.Is(err, chain.ErrTxFailed):
		return wrapError(KindVerification, err, "交易执行失败")
	case errors.Is(err, chain.ErrTxNotFinal):
		return wrapError(KindVerification, err, "交易确认数不足，请稍后重试")
	case errors.Is(err, chain.ErrVerificationFailed):
		return wrapError(KindVerification, err, "交易校验失败")
	default:
		return wrapError(KindInternal, err, "交易校验出错")
	}
}
