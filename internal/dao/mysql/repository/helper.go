package repository

import (
	"errors"

	"kama_chat_hub/pkg/errorx"

	"gorm.io/gorm"
)

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - ErrDuplicatedKey  -> CodeAlreadyExists（需要 gorm.Config.TranslateError）
//   - 其他错误 -> CodeDBError
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errorx.Wrap(err, classify(err), msg)
}

// wrapDBErrorf 同 wrapDBError，支持格式化消息
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errorx.Wrapf(err, classify(err), format, args...)
}

func classify(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorx.CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errorx.CodeAlreadyExists
	default:
		return errorx.CodeDBError
	}
}

// IsDuplicate 判断是否唯一索引冲突
func IsDuplicate(err error) bool {
	return errorx.GetCode(err) == errorx.CodeAlreadyExists || errors.Is(err, gorm.ErrDuplicatedKey)
}
