package hook

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lk2023060901/danmu-serial/internal/pstream"
	"github.com/lk2023060901/danmu-serial/pkg/buffer/growable"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

const (
	// SizeDigits 为负载长度字段的固定宽度。
	SizeDigits = 20
	// HeaderSize 为伪造的 PERSISTSXP 记录头长度：5 个 4 字节整数加长度字段。
	HeaderSize = 5*4 + SizeDigits
)

// MaxChunk 为单次 OutBytes/InBytes 传输的最大字节数。
const MaxChunk = math.MaxInt32

// FormatSize 把负载长度编码为 20 位左侧补零的十进制字符串。
func FormatSize(size uint64) string {
	return fmt.Sprintf("%0*d", SizeDigits, size)
}

// ParseSize 解析长度字段：必须恰好是 20 个 ASCII 数字，且不超过 growable.MaxLen。
func ParseSize(s string) (uint64, error) {
	if len(s) != SizeDigits {
		return 0, merr.WrapErrBadLengthEncoding(s, "wrong width")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, merr.WrapErrBadLengthEncoding(s, "non-digit")
		}
	}
	size, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, merr.WrapErrSizeTooLarge(s, uint64(growable.MaxLen))
	}
	if size > uint64(growable.MaxLen) {
		return 0, merr.WrapErrSizeTooLarge(s, uint64(growable.MaxLen))
	}
	return size, nil
}

// writeHeader 写出伪造的字符串记录头：标记、引用表长度、元素个数、元素类型与长度字段。
func writeHeader(s OutStream, size uint64) error {
	for _, v := range []int32{pstream.TypePersist, 0, 1, pstream.TypeChar, SizeDigits} {
		if err := s.OutInteger(v); err != nil {
			return err
		}
	}
	return s.OutBytes([]byte(FormatSize(size)))
}

func writeChunked(s OutStream, p []byte, chunk int) error {
	for len(p) > 0 {
		n := min(len(p), chunk)
		if err := s.OutBytes(p[:n]); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func readChunked(s InStream, dst []byte, chunk int) error {
	for len(dst) > 0 {
		n := min(len(dst), chunk)
		if err := s.InBytes(dst[:n]); err != nil {
			return err
		}
		dst = dst[n:]
	}
	return nil
}

// readTag 读取以 NUL 结尾的类标签。
func readTag(s InStream) (string, error) {
	tag := growable.New(16)
	var c [1]byte
	for {
		if err := s.InBytes(c[:]); err != nil {
			return "", err
		}
		if c[0] == 0 {
			return string(tag.Bytes()), nil
		}
		if err := tag.WriteByte(c[0]); err != nil {
			return "", err
		}
	}
}

// skipWrapper 读取并丢弃宿主在钩子返回后写出的包装记录。
func skipWrapper(s InStream) error {
	marker, err := s.InInteger()
	if err != nil {
		return err
	}
	if marker != pstream.TypePersist {
		return merr.WrapErrMalformedRecord("wrapper record marker mismatch")
	}
	refs, err := s.InInteger()
	if err != nil {
		return err
	}
	if refs != 0 {
		return merr.WrapErrMalformedRecord("wrapper record with a reference table")
	}
	count, err := s.InInteger()
	if err != nil {
		return err
	}
	if count < 0 {
		return merr.WrapErrMalformedRecord("negative wrapper element count")
	}
	var scratch [256]byte
	for i := int32(0); i < count; i++ {
		typ, err := s.InInteger()
		if err != nil {
			return err
		}
		if typ&0xff != pstream.TypeChar {
			return merr.WrapErrMalformedRecord("wrapper element is not a character string")
		}
		n, err := s.InInteger()
		if err != nil {
			return err
		}
		if n < 0 {
			return merr.WrapErrMalformedRecord("negative wrapper element length")
		}
		for n > 0 {
			k := min(int(n), len(scratch))
			if err := s.InBytes(scratch[:k]); err != nil {
				return err
			}
			n -= int32(k)
		}
	}
	return nil
}
