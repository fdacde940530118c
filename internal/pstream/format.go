// Package pstream 实现了一个精简的持久化流序列化器（host serializer）。
//
// 流由头部与若干条目组成，每个条目为 flags(int32) 加上条目体。
// 原生无法表示的值交给输出钩子处理，钩子结果以 PERSISTSXP 记录写出；
// 读取时 PERSISTSXP 记录中的名字列表会原样交还给输入钩子。
package pstream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/blang/semver/v4"

	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Format 为流格式，决定 4 字节整数与浮点数的字节序。
type Format byte

const (
	// Binary 为小端二进制格式，头部为 "B\n"。
	Binary Format = 'B'
	// XDR 为大端格式，头部为 "X\n"。
	XDR Format = 'X'
)

// ParseFormat 把配置中的格式名解析为 Format。
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "binary", "B":
		return Binary, nil
	case "xdr", "X":
		return XDR, nil
	default:
		return 0, merr.WrapErrParameterInvalidMsg("unknown stream format %q", name)
	}
}

func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case XDR:
		return "xdr"
	default:
		return fmt.Sprintf("format(%d)", byte(f))
	}
}

// ByteOrder 返回该格式使用的字节序。
func (f Format) ByteOrder() binary.ByteOrder {
	if f == XDR {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (f Format) valid() bool {
	return f == Binary || f == XDR
}

// 条目类型码。
const (
	TypeChar    = 9   // CHARSXP，单个字符串元素
	TypeLogical = 10  // LGLSXP
	TypeInteger = 13  // INTSXP
	TypeReal    = 14  // REALSXP
	TypeString  = 16  // STRSXP
	TypeList    = 19  // VECSXP
	TypeRaw     = 24  // RAWSXP
	TypePersist = 247 // PERSISTSXP，由钩子产生的记录
	TypeNil     = 254 // NILVALUE_SXP
)

const (
	// FormatVersion 为当前写出的流格式版本。
	FormatVersion = 3
	// NativeEncoding 为版本 3 头部中记录的字符编码。
	NativeEncoding = "UTF-8"

	typeMask = 0xff
	// flagScalar 标记长度为 1 的向量原本是标量。
	flagScalar = 1 << 12
	// naLength 为缺失字符串的长度标记。
	naLength = -1
)

// MaxBytes 为单次 OutBytes/InBytes 允许的最大长度。
const MaxBytes = math.MaxInt32

var (
	// Version 为当前实现的版本，写入头部并用于读取时的兼容检查。
	Version = semver.MustParse("1.0.0")
	// MinReaderVersion 为读取本实现写出的流所需的最低读取端版本。
	MinReaderVersion = semver.MustParse("1.0.0")
)

// PackVersion 把版本压缩为 major<<16 | minor<<8 | patch。
func PackVersion(v semver.Version) int32 {
	return int32(v.Major&0xff)<<16 | int32(v.Minor&0xff)<<8 | int32(v.Patch&0xff)
}

// UnpackVersion 是 PackVersion 的逆操作。
func UnpackVersion(packed int32) semver.Version {
	return semver.Version{
		Major: uint64(packed>>16) & 0xff,
		Minor: uint64(packed>>8) & 0xff,
		Patch: uint64(packed) & 0xff,
	}
}

// Header 为流头部信息。
type Header struct {
	Format           Format
	Version          int32
	WriterVersion    semver.Version
	MinReaderVersion semver.Version
	NativeEncoding   string
}
