package domain

import (
	"errors"
	"fmt"
)

// Kind 错误分类，由传输层映射为重定向或状态码
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindNotFound        Kind = "NOT_FOUND"
	KindUpstream        Kind = "UPSTREAM_FAILURE"
	KindValidation      Kind = "VALIDATION_FAILURE"
	KindConflict        Kind = "CONFLICT"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func Unauthorized(msg string) error    { return &Error{Kind: KindUnauthorized, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Msg: msg} }
func Invalid(msg string) error         { return &Error{Kind: KindValidation, Msg: msg} }
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Msg: msg} }
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律按上游故障处理
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUpstream
}

// Is 判断错误是否为某一类
func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }
