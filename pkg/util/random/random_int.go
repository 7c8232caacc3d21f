package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GetNowAndLenRandomString 生成带日期前缀的随机字符串
// 格式: YYMMDD + 字母数字混合，如 241230AbCdE1234567
func GetNowAndLenRandomString(length int) string {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			result[i] = 'x'
			continue
		}
		result[i] = charset[n.Int64()]
	}
	return time.Now().Format("060102") + string(result)
}

// NewID 生成 20 位业务 ID：1 位前缀 + 6 位日期 + 13 位随机串
// 恰好填满 char(20) 列
func NewID(prefix string) string {
	return prefix + GetNowAndLenRandomString(14-len(prefix))
}
