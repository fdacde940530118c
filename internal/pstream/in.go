package pstream

import (
	"math"

	"github.com/lk2023060901/danmu-serial/pkg/buffer/growable"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// InHook 在读到 PERSISTSXP 记录时被调用，names 为记录中的名字列表。
type InHook func(names []string) (any, error)

// InStream 从一段只读字节中读取值树。
type InStream struct {
	buf     *growable.Buffer
	format  Format
	header  Header
	hook    InHook
	scratch [8]byte
}

// InOption 用于配置 InStream。
type InOption func(*InStream)

// WithInHook 设置输入钩子。
func WithInHook(hook InHook) InOption {
	return func(s *InStream) {
		s.hook = hook
	}
}

// NewInStream 创建读取 data 的输入流，格式在 ReadHeader 时确定。
func NewInStream(data []byte, opts ...InOption) *InStream {
	s := &InStream{buf: growable.Wrap(data), format: Binary}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetHook 替换输入钩子。
func (s *InStream) SetHook(hook InHook) {
	s.hook = hook
}

// Header 返回 ReadHeader 解析出的头部。
func (s *InStream) Header() Header {
	return s.header
}

// Format 返回流格式。
func (s *InStream) Format() Format {
	return s.format
}

// Remaining 返回尚未读取的字节数。
func (s *InStream) Remaining() int {
	return s.buf.Remaining()
}

// InBytes 读取恰好 len(dst) 个字节，长度不得超过 MaxBytes。
func (s *InStream) InBytes(dst []byte) error {
	if len(dst) > MaxBytes {
		return merr.WrapErrParameterInvalid(MaxBytes, len(dst), "InBytes length exceeds 32-bit bound")
	}
	return s.buf.ReadFull(dst)
}

// InInteger 按流字节序读取一个 4 字节整数。
func (s *InStream) InInteger() (int32, error) {
	if err := s.InBytes(s.scratch[:4]); err != nil {
		return 0, err
	}
	return int32(s.format.ByteOrder().Uint32(s.scratch[:4])), nil
}

// InReal 按流字节序读取一个 8 字节浮点数。
func (s *InStream) InReal() (float64, error) {
	if err := s.InBytes(s.scratch[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(s.format.ByteOrder().Uint64(s.scratch[:8])), nil
}

// InString 读取长度与字符串内容。
func (s *InStream) InString() (string, error) {
	n, err := s.InInteger()
	if err != nil {
		return "", err
	}
	return s.readString(n)
}

func (s *InStream) readString(n int32) (string, error) {
	if n == naLength {
		return "", merr.WrapErrMalformedRecord("missing string values are not supported")
	}
	if n < 0 {
		return "", merr.WrapErrMalformedRecord("negative string length")
	}
	if int(n) > s.Remaining() {
		return "", merr.WrapErrUnderrun(int(n), s.Remaining())
	}
	data := make([]byte, n)
	if err := s.InBytes(data); err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadHeader 解析流头部并校验版本。
func (s *InStream) ReadHeader() (Header, error) {
	var magic [2]byte
	if err := s.buf.ReadFull(magic[:]); err != nil {
		return Header{}, err
	}
	format := Format(magic[0])
	if !format.valid() || magic[1] != '\n' {
		return Header{}, merr.WrapErrMalformedRecord("unknown stream header")
	}
	s.format = format

	version, err := s.InInteger()
	if err != nil {
		return Header{}, err
	}
	if version != 2 && version != FormatVersion {
		return Header{}, merr.WrapErrMalformedRecord("unsupported format version")
	}
	writer, err := s.InInteger()
	if err != nil {
		return Header{}, err
	}
	minReader, err := s.InInteger()
	if err != nil {
		return Header{}, err
	}
	h := Header{
		Format:           format,
		Version:          version,
		WriterVersion:    UnpackVersion(writer),
		MinReaderVersion: UnpackVersion(minReader),
	}
	if h.MinReaderVersion.GT(Version) {
		return Header{}, merr.WrapErrVersionMismatch(h.MinReaderVersion.String(), Version.String())
	}
	if version == FormatVersion {
		if h.NativeEncoding, err = s.InString(); err != nil {
			return Header{}, err
		}
	}
	s.header = h
	return h, nil
}

// ReadItem 递归读取一个值。
func (s *InStream) ReadItem() (any, error) {
	flags, err := s.InInteger()
	if err != nil {
		return nil, err
	}
	scalar := flags&flagScalar != 0
	switch flags & typeMask {
	case TypeNil:
		return nil, nil
	case TypeLogical:
		v, err := s.readLogical()
		if err != nil || !scalar {
			return v, err
		}
		return scalarOf(v)
	case TypeInteger:
		v, err := s.readInteger()
		if err != nil || !scalar {
			return v, err
		}
		return scalarOf(v)
	case TypeReal:
		v, err := s.readReal()
		if err != nil || !scalar {
			return v, err
		}
		return scalarOf(v)
	case TypeString:
		v, err := s.readStrings()
		if err != nil || !scalar {
			return v, err
		}
		return scalarOf(v)
	case TypeRaw:
		n, err := s.readLength(1)
		if err != nil {
			return nil, err
		}
		data := make([]byte, n)
		if err := s.InBytes(data); err != nil {
			return nil, err
		}
		return data, nil
	case TypeList:
		n, err := s.readLength(4)
		if err != nil {
			return nil, err
		}
		out := make([]any, n)
		for i := range out {
			if out[i], err = s.ReadItem(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case TypePersist:
		names, err := s.ReadPersistNames()
		if err != nil {
			return nil, err
		}
		if s.hook == nil {
			return nil, merr.WrapErrMalformedRecord("persistent record without an input hook")
		}
		return s.hook(names)
	default:
		return nil, merr.WrapErrMalformedRecord("unknown item type")
	}
}

// ReadPersistNames 读取 PERSISTSXP 标记之后的名字列表。
func (s *InStream) ReadPersistNames() ([]string, error) {
	refs, err := s.InInteger()
	if err != nil {
		return nil, err
	}
	if refs != 0 {
		return nil, merr.WrapErrMalformedRecord("persistent record with a reference table")
	}
	n, err := s.readLength(8)
	if err != nil {
		return nil, err
	}
	names := make([]string, n)
	for i := range names {
		if names[i], err = s.readChar(); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func (s *InStream) readChar() (string, error) {
	flags, err := s.InInteger()
	if err != nil {
		return "", err
	}
	if flags&typeMask != TypeChar {
		return "", merr.WrapErrMalformedRecord("expected a character element")
	}
	return s.InString()
}

// readLength 读取向量长度，并按每个元素至少 minElem 字节校验剩余输入。
func (s *InStream) readLength(minElem int) (int, error) {
	n, err := s.InInteger()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, merr.WrapErrMalformedRecord("negative vector length")
	}
	if int64(n)*int64(minElem) > int64(s.Remaining()) {
		return 0, merr.WrapErrUnderrun(int(n)*minElem, s.Remaining())
	}
	return int(n), nil
}

func (s *InStream) readLogical() ([]bool, error) {
	n, err := s.readLength(4)
	if err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := range out {
		v, err := s.InInteger()
		if err != nil {
			return nil, err
		}
		out[i] = v != 0
	}
	return out, nil
}

func (s *InStream) readInteger() ([]int32, error) {
	n, err := s.readLength(4)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		if out[i], err = s.InInteger(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *InStream) readReal() ([]float64, error) {
	n, err := s.readLength(8)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		if out[i], err = s.InReal(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *InStream) readStrings() ([]string, error) {
	n, err := s.readLength(8)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = s.readChar(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scalarOf[T any](v []T) (any, error) {
	if len(v) != 1 {
		return nil, merr.WrapErrMalformedRecord("scalar item with a length other than one")
	}
	return v[0], nil
}
