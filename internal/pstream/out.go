package pstream

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/danmu-serial/pkg/buffer/growable"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// OutHook 在遇到原生无法表示的值时被调用。
// 返回 nil, nil 表示拒绝处理；返回错误会终止整个序列化。
type OutHook func(v any) ([]string, error)

// OutStream 把值树写入 growable.Buffer。
type OutStream struct {
	buf     *growable.Buffer
	format  Format
	hook    OutHook
	strict  bool
	scratch [8]byte
}

// OutOption 用于配置 OutStream。
type OutOption func(*OutStream)

// WithOutHook 设置输出钩子。
func WithOutHook(hook OutHook) OutOption {
	return func(s *OutStream) {
		s.hook = hook
	}
}

// WithStrict 为 true 时，无法编码的值会返回 ErrUnsupportedValue，而不是写成 NULL。
func WithStrict(strict bool) OutOption {
	return func(s *OutStream) {
		s.strict = strict
	}
}

// NewOutStream 创建写入 buf 的输出流。
func NewOutStream(buf *growable.Buffer, format Format, opts ...OutOption) (*OutStream, error) {
	if buf == nil {
		return nil, merr.WrapErrParameterInvalidMsg("output buffer is nil")
	}
	if !format.valid() {
		return nil, merr.WrapErrParameterInvalidMsg("unknown stream format %d", byte(format))
	}
	s := &OutStream{buf: buf, format: format}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetHook 替换输出钩子，会话在创建流之后才能绑定钩子。
func (s *OutStream) SetHook(hook OutHook) {
	s.hook = hook
}

// Format 返回流格式。
func (s *OutStream) Format() Format {
	return s.format
}

// Buffer 返回底层缓冲区。
func (s *OutStream) Buffer() *growable.Buffer {
	return s.buf
}

// OutBytes 原样写入 p，长度不得超过 MaxBytes。
func (s *OutStream) OutBytes(p []byte) error {
	if len(p) > MaxBytes {
		return merr.WrapErrParameterInvalid(MaxBytes, len(p), "OutBytes length exceeds 32-bit bound")
	}
	_, err := s.buf.Write(p)
	return err
}

// OutInteger 按流字节序写入一个 4 字节整数。
func (s *OutStream) OutInteger(v int32) error {
	s.format.ByteOrder().PutUint32(s.scratch[:4], uint32(v))
	return s.OutBytes(s.scratch[:4])
}

// OutReal 按流字节序写入一个 8 字节浮点数。
func (s *OutStream) OutReal(v float64) error {
	s.format.ByteOrder().PutUint64(s.scratch[:8], math.Float64bits(v))
	return s.OutBytes(s.scratch[:8])
}

// OutString 写入长度与字符串内容。
func (s *OutStream) OutString(str string) error {
	if len(str) > MaxBytes {
		return merr.WrapErrParameterInvalid(MaxBytes, len(str), "string length exceeds 32-bit bound")
	}
	if err := s.OutInteger(int32(len(str))); err != nil {
		return err
	}
	_, err := s.buf.WriteString(str)
	return err
}

// WriteHeader 写出流头部。
func (s *OutStream) WriteHeader() error {
	if _, err := s.buf.Write([]byte{byte(s.format), '\n'}); err != nil {
		return err
	}
	for _, v := range []int32{FormatVersion, PackVersion(Version), PackVersion(MinReaderVersion)} {
		if err := s.OutInteger(v); err != nil {
			return err
		}
	}
	return s.OutString(NativeEncoding)
}

// WriteItem 递归写出 v。
func (s *OutStream) WriteItem(v any) error {
	switch x := v.(type) {
	case nil:
		return s.OutInteger(TypeNil)
	case bool:
		return s.writeLogical([]bool{x}, flagScalar)
	case []bool:
		return s.writeLogical(x, 0)
	case int32:
		return s.writeInteger([]int32{x}, flagScalar)
	case []int32:
		return s.writeInteger(x, 0)
	case float64:
		return s.writeReal([]float64{x}, flagScalar)
	case []float64:
		return s.writeReal(x, 0)
	case string:
		return s.writeStrings([]string{x}, flagScalar)
	case []string:
		return s.writeStrings(x, 0)
	case []byte:
		if err := s.writeVectorHeader(TypeRaw, len(x)); err != nil {
			return err
		}
		return s.OutBytes(x)
	case []any:
		if err := s.writeVectorHeader(TypeList, len(x)); err != nil {
			return err
		}
		for _, elem := range x {
			if err := s.WriteItem(elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return s.writeOpaque(v)
	}
}

func (s *OutStream) writeOpaque(v any) error {
	var names []string
	if s.hook != nil {
		var err error
		names, err = s.hook(v)
		if err != nil {
			return err
		}
	}
	if names == nil {
		if s.strict {
			return merr.WrapErrUnsupportedValue(v)
		}
		return s.OutInteger(TypeNil)
	}
	if err := s.OutInteger(TypePersist); err != nil {
		return err
	}
	return s.writePersistNames(names)
}

// writePersistNames 写出名字列表：引用表长度 0、元素个数，以及每个 CHARSXP 元素。
func (s *OutStream) writePersistNames(names []string) error {
	if err := s.OutInteger(0); err != nil {
		return err
	}
	if err := s.OutInteger(int32(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := s.writeChar(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *OutStream) writeChar(str string) error {
	if err := s.OutInteger(TypeChar); err != nil {
		return err
	}
	return s.OutString(str)
}

func (s *OutStream) writeVectorHeader(typ int32, n int) error {
	return s.writeVectorHeaderFlags(typ, 0, n)
}

func (s *OutStream) writeVectorHeaderFlags(typ, flags int32, n int) error {
	if n > math.MaxInt32 {
		return errors.Wrapf(merr.ErrUnsupportedValue, "vector of %d elements", n)
	}
	if err := s.OutInteger(typ | flags); err != nil {
		return err
	}
	return s.OutInteger(int32(n))
}

func (s *OutStream) writeLogical(v []bool, flags int32) error {
	if err := s.writeVectorHeaderFlags(TypeLogical, flags, len(v)); err != nil {
		return err
	}
	for _, b := range v {
		var i int32
		if b {
			i = 1
		}
		if err := s.OutInteger(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *OutStream) writeInteger(v []int32, flags int32) error {
	if err := s.writeVectorHeaderFlags(TypeInteger, flags, len(v)); err != nil {
		return err
	}
	for _, i := range v {
		if err := s.OutInteger(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *OutStream) writeReal(v []float64, flags int32) error {
	if err := s.writeVectorHeaderFlags(TypeReal, flags, len(v)); err != nil {
		return err
	}
	for _, f := range v {
		if err := s.OutReal(f); err != nil {
			return err
		}
	}
	return nil
}

func (s *OutStream) writeStrings(v []string, flags int32) error {
	if err := s.writeVectorHeaderFlags(TypeString, flags, len(v)); err != nil {
		return err
	}
	for _, str := range v {
		if err := s.writeChar(str); err != nil {
			return err
		}
	}
	return nil
}
