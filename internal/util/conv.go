package util

import (
	"strconv"
)

// ParseUint 解析路径参数里的无符号整数 ID
func ParseUint(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	return uint(id), err
}
