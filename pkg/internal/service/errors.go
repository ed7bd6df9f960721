package service

import (
	"errors"
	"fmt"
)

// Kind 服务层错误类别，handle 层据此映射 HTTP 状态码.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindPermissionDenied
	KindValidation
	KindStateConflict
)

// Error 携带类别的服务层错误.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}

	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFoundf 资源不存在.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Deniedf 越权访问.
// 对外表现与 NotFound 相同（避免泄露资源存在性），但内部区分便于审计.
func Deniedf(format string, args ...any) error {
	return &Error{Kind: KindPermissionDenied, Msg: fmt.Sprintf(format, args...)}
}

// Invalidf 输入校验失败.
func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf 状态机冲突，如删除当前版本、恢复未删除文档.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindStateConflict, Msg: fmt.Sprintf(format, args...)}
}

// Wrapf 包装底层错误为内部错误.
func Wrapf(err error, format string, args ...any) error {
	return &Error{Kind: KindInternal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 提取错误类别，非服务层错误归为 KindInternal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}

	return KindInternal
}
