package errorx

import (
	"errors"
	"fmt"
)

// CodeError 带业务错误码的自定义错误
// 实现了 error 接口，支持 %w 包装底层错误，且能被 errors.Is/errors.As 识别
type CodeError struct {
	Code  int    // 业务错误码
	Msg   string // 错误消息
	cause error  // 被包装的底层错误
}

// Error 存在底层错误时返回 "消息: 底层错误"，否则仅返回消息
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap 支持 errors.Is/errors.As 向下追溯
func (e *CodeError) Unwrap() error {
	return e.cause
}

// Is 按业务码比较，使 errors.Is(err, errorx.ErrNotAMember) 对重新包装过的错误同样成立
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// New 创建一个新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

// Newf 创建一个带格式化消息的 CodeError
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap 包装底层错误，添加业务错误码和消息
// 用法: errorx.Wrap(err, CodeNotFound, "用户不存在")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
}

// Wrapf 包装底层错误，支持格式化消息
// 用法: errorx.Wrapf(err, CodeNotFound, "会话 %s 不存在", conversationId)
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// GetCode 从错误中提取业务错误码，如果不是 CodeError 则返回默认码
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy
}

// 业务状态码常量定义
const (
	CodeSuccess         = 1000 // 成功
	CodeInvalidParam    = 1001 // 请求参数错误
	CodeUserExist       = 1002 // 用户已存在
	CodeUserNotExist    = 1003 // 用户不存在
	CodeInvalidPassword = 1004 // 密码错误
	CodeServerBusy      = 1005 // 服务繁忙
	CodeUnauthorized    = 1006 // 未授权/认证失败
	CodeRateLimited     = 1007 // 发送过于频繁
	CodeNotFound        = 1008 // 资源不存在
	CodeDBError         = 1010 // 数据库错误
	CodeCacheError      = 1011 // 缓存错误

	// 权限类
	CodeNotAMember = 2001 // 不是会话成员
	CodeForbidden  = 2002 // 无权执行该操作
	CodeNotSender  = 2003 // 不是消息发送者

	// 冲突类
	CodeAlreadyExists  = 2101
	CodeAlreadyMember  = 2102
	CodeAlreadyFriends = 2103
	CodeAlreadyPending = 2104

	// 状态类
	CodeInvalidState      = 2201
	CodeAlreadyRevoked    = 2202
	CodeCannotRemoveOwner = 2203
	CodeCannotDemoteOwner = 2204
	CodeOwnerCannotLeave  = 2205
	CodePinLimitExceeded  = 2206

	// 校验类
	CodeValidation         = 2301
	CodeEmptyName          = 2302
	CodeEmptyContent       = 2303
	CodeEmptyMemberList    = 2304
	CodeSelfPairNotAllowed = 2305
	CodeInvalidReply       = 2306
)

// 预定义常用错误实例
// 这些实例既可直接返回，也可用于 errors.Is 比较
var (
	ErrInvalidParam = New(CodeInvalidParam, "请求参数错误")
	ErrServerBusy   = New(CodeServerBusy, "服务繁忙")
	ErrUnauthorized = New(CodeUnauthorized, "未登录或登录已过期")
	ErrRateLimited  = New(CodeRateLimited, "发送过于频繁，请稍后再试")
	ErrNotFound     = New(CodeNotFound, "资源不存在")
	ErrUserNotExist = New(CodeUserNotExist, "用户不存在")

	ErrNotAMember = New(CodeNotAMember, "你不是该会话成员")
	ErrForbidden  = New(CodeForbidden, "无权执行该操作")
	ErrNotSender  = New(CodeNotSender, "只能操作自己发送的消息")

	ErrAlreadyExists  = New(CodeAlreadyExists, "记录已存在")
	ErrAlreadyMember  = New(CodeAlreadyMember, "该用户已在群内")
	ErrAlreadyFriends = New(CodeAlreadyFriends, "你们已经是好友")
	ErrAlreadyPending = New(CodeAlreadyPending, "好友请求已发送，等待对方确认")

	ErrInvalidState      = New(CodeInvalidState, "当前状态不允许该操作")
	ErrAlreadyRevoked    = New(CodeAlreadyRevoked, "消息已撤回")
	ErrCannotRemoveOwner = New(CodeCannotRemoveOwner, "不能移除群主")
	ErrCannotDemoteOwner = New(CodeCannotDemoteOwner, "不能修改群主角色，请使用转让群主")
	ErrOwnerCannotLeave  = New(CodeOwnerCannotLeave, "群主需先转让群主才能退出")
	ErrPinLimitExceeded  = New(CodePinLimitExceeded, "置顶消息数量已达上限")

	ErrValidation         = New(CodeValidation, "参数校验失败")
	ErrEmptyName          = New(CodeEmptyName, "名称不能为空")
	ErrEmptyContent       = New(CodeEmptyContent, "消息内容不能为空")
	ErrEmptyMemberList    = New(CodeEmptyMemberList, "请至少选择一名成员")
	ErrSelfPairNotAllowed = New(CodeSelfPairNotAllowed, "不能对自己执行该操作")
	ErrInvalidReply       = New(CodeInvalidReply, "回复的消息不存在")
)

// IsNotFound 检查错误是否为"未找到"类型（包括 gorm.ErrRecordNotFound）
func IsNotFound(err error) bool {
	var codeErr *CodeError
	if errors.As(err, &codeErr) && codeErr.Code == CodeNotFound {
		return true
	}
	return err != nil && err.Error() == "record not found"
}

// IsInvalidState 状态类错误（2201-2206）统一归为 InvalidState
func IsInvalidState(err error) bool {
	code := GetCode(err)
	return code >= CodeInvalidState && code <= CodePinLimitExceeded
}

// IsValidation 校验类错误（1001 与 2301-2306）统一归为 ValidationError
func IsValidation(err error) bool {
	code := GetCode(err)
	return code == CodeInvalidParam || (code >= CodeValidation && code <= CodeInvalidReply)
}

// IsInternal 持久化或未分类错误，对外应统一返回 ErrServerBusy
func IsInternal(err error) bool {
	var codeErr *CodeError
	if !errors.As(err, &codeErr) {
		return true
	}
	switch codeErr.Code {
	case CodeDBError, CodeCacheError, CodeServerBusy:
		return true
	}
	return false
}
