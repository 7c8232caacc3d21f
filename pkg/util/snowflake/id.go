package snowflake

import (
	"bytes"
	"strconv"
)

// ID 雪花 ID，JSON 中以字符串表示，避免 JavaScript 精度丢失
// 解码时同时接受字符串与数字
type ID int64

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatInt(int64(id), 10) + `"`), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// UnmarshalParam 供 gin 的 query/form 绑定使用
func (id *ID) UnmarshalParam(param string) error {
	return id.UnmarshalJSON([]byte(param))
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id ID) Int64() int64 {
	return int64(id)
}
