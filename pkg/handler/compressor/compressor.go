package compressor

import (
	"errors"
	"fmt"
	"strings"
)

// Compressor 抽象了“单次压缩/解压”能力。
//
// 设计目标：
//   - 面向单个处理器负载的压缩，由调用方按类标签选择性开启，不作用于记录帧本身。
//   - 不做全局单例，调用方按需创建具体实现的实例。
type Compressor interface {
	// Compress 将 src 压缩到 dst。
	//
	// dst 一般可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量；
	// 返回值 packet 为压缩后的完整数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压到 dst。
	//
	// 行为约定与 Compress 对称：src 必须是 Compress 的输出。
	Decompress(dst, src []byte) (plain []byte, err error)
}

// NopCompressor 是一个空实现：不做任何压缩/解压，直接返回输入内容。
//
// 适用于：
//   - 默认值（配置中未开启压缩时）
//   - 便于在调用侧通过接口注入，在不改业务逻辑的前提下关闭压缩
type NopCompressor struct{}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var _ Compressor = NopCompressor{}

// 压缩输出的首字节，标记后续内容是否真正经过压缩。
const (
	modeRaw        byte = 0
	modeCompressed byte = 1
)

var errTruncated = errors.New("compressor: truncated packet")

func appendRaw(dst, src []byte) []byte {
	dst = append(dst, modeRaw)
	return append(dst, src...)
}

func splitMode(src []byte) (byte, []byte, error) {
	if len(src) == 0 {
		return 0, nil, errTruncated
	}
	switch src[0] {
	case modeRaw, modeCompressed:
		return src[0], src[1:], nil
	default:
		return 0, nil, fmt.Errorf("compressor: unknown packet mode %d", src[0])
	}
}

// 配置中可选的压缩算法名称。
const (
	NameNone = "none"
	NameZstd = "zstd"
	NameLZ4  = "lz4"
)

// ByName 按名称创建压缩器，名称为空时等同于 NameNone。
func ByName(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameNone:
		return NopCompressor{}, nil
	case NameZstd:
		return NewZstdCompressor()
	case NameLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("compressor: unknown algorithm %q", name)
	}
}
