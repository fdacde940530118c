// Package json 为项目内部提供统一的 JSON 编解码入口，底层基于 bytedance/sonic。
package json

import (
	"github.com/bytedance/sonic"
)

// api 与 encoding/json 行为保持一致（转义 HTML、map key 排序等）。
var api = sonic.ConfigStd

// Marshal 将 v 编码为 JSON。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal 将 JSON 数据解码到 v 中，v 通常为指针。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid 判断 data 是否为合法 JSON。
func Valid(data []byte) bool {
	return api.Valid(data)
}
