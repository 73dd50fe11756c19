package util

import (
	"errors"
	"fmt"
)

// 错误分类：
//   ValidationError / NotFoundError 可由用户直接纠正，不会产生任何状态变更；
//   PersistenceError 表示存储层读写失败，操作已中止、未提交部分更新；
//   CertificateIssuanceError 发生在报名状态已落库之后，属于提交后的非致命警告，
//   课程完成本身不受影响。

// ValidationError 提交内容不满足前置条件（如测验未答完所有题目）
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError 引用的测验/课程/报名记录不存在
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// PersistenceError 存储层读写失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// CertificateIssuanceError 证书渲染/导出失败（课程完成状态已持久化）
type CertificateIssuanceError struct {
	Err error
}

func (e *CertificateIssuanceError) Error() string {
	return fmt.Sprintf("certificate issuance failed: %v", e.Err)
}

func (e *CertificateIssuanceError) Unwrap() error { return e.Err }

func NewCertificateIssuanceError(err error) *CertificateIssuanceError {
	return &CertificateIssuanceError{Err: err}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")
	ErrVersionConflict  = errors.New("enrollment version conflict")
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
)
