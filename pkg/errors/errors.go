package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 错误分类 ──
//
// 所有业务错误归入以下分类之一，Handler 层只依据分类决定 HTTP 状态码。

var (
	ErrValidation      = errors.New("参数校验失败")
	ErrUnauthenticated = errors.New("未认证")
	ErrNotFound        = errors.New("资源不存在")
	ErrForbidden       = errors.New("无权限操作")
	ErrConflict        = errors.New("状态冲突")
	ErrInternal        = errors.New("服务器内部错误")
)

// Detail 单条错误详情（批量校验时逐条列出）
type Detail struct {
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// AppError 带分类、业务码与详情的错误
type AppError struct {
	Kind    error
	Code    int
	Message string
	Details []Detail
}

// New 创建 AppError
func New(kind error, code int, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func (e *AppError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d 项)", e.Message, len(e.Details))
}

// Unwrap 使 errors.Is(err, ErrConflict) 等分类判断成立
func (e *AppError) Unwrap() error { return e.Kind }

// Is 同业务码视为同一错误，允许携带不同详情的副本匹配哨兵值
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithDetails 返回携带详情的副本
func (e *AppError) WithDetails(details ...Detail) *AppError {
	cp := *e
	cp.Details = append([]Detail(nil), details...)
	return &cp
}

// WithMessage 返回替换提示信息的副本
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// KindOf 返回错误分类；非 AppError 一律视为内部错误
func KindOf(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrOptimisticLock) {
		return ErrConflict
	}
	return ErrInternal
}

// Internal 包装存储层等非预期错误
func Internal(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrInternal, err))
}
