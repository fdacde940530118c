// Package growable 实现了序列化/反序列化共用的可增长字节缓冲区。
//
// 写入模式下缓冲区从固定初始容量开始按需扩容；读取模式下缓冲区包装一段外部只读字节切片，
// 游标即读取位置。任意时刻都满足 cursor <= capacity。
package growable

import (
	"io"
	"math"

	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

const (
	// DefaultBufferSize 是写入模式下缓冲区的默认初始容量。
	DefaultBufferSize = 4096 // 4KB
	// GrowThreshold 为扩容策略的分界点：容量低于该值时翻倍，超过后每次只追加该值。
	GrowThreshold = 128 * 1024 * 1024 // 128MB
)

// MaxLen 为缓冲区允许的最大长度（2^52，受限于当前平台 int 的表示范围）。
var MaxLen = maxLen()

func maxLen() int {
	const limit = uint64(1) << 52
	if uint64(math.MaxInt) < limit {
		return math.MaxInt
	}
	return int(limit)
}

// Buffer 是一个带游标的可增长字节缓冲区，实现了 io.Writer、io.ByteWriter 与 io.ByteReader 接口。
//
// 注意：Buffer 只归属于单次序列化/反序列化调用，不支持并发访问。
type Buffer struct {
	buf      []byte // 底层存储，len(buf) 即容量
	cur      int    // 写入模式下为已写入长度，读取模式下为读取位置
	limit    int    // 最大允许容量
	grows    int    // 扩容（重新分配）次数
	readOnly bool
}

// New 创建一个写入模式的 Buffer。
// size <= 0 时使用 DefaultBufferSize。
func New(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{
		buf:   make([]byte, size),
		limit: MaxLen,
	}
}

// Wrap 以读取模式包装 data，容量等于 len(data)，游标从 0 开始。
// Buffer 不会修改 data 的内容。
func Wrap(data []byte) *Buffer {
	return &Buffer{
		buf:      data,
		limit:    len(data),
		readOnly: true,
	}
}

// SetLimit 设置缓冲区允许的最大容量，n 不得超过 MaxLen。
func (b *Buffer) SetLimit(n int) {
	if n <= 0 || n > MaxLen {
		n = MaxLen
	}
	b.limit = n
}

// Write 实现 io.Writer 接口，将 p 追加到游标处。
//
// 容量不足时按以下策略扩容：容量低于 GrowThreshold 时翻倍，否则每次增加 GrowThreshold，
// 直到满足需求为止。若所需容量超过上限，会先释放已持有的存储再返回 ErrCapacityExceeded。
func (b *Buffer) Write(p []byte) (int, error) {
	if b.readOnly {
		return 0, merr.WrapErrParameterInvalidMsg("growable: write to a read-only buffer")
	}
	n := len(p)
	if n == 0 {
		return 0, nil
	}

	req := uint64(b.cur) + uint64(n)
	if req > uint64(b.limit) {
		b.Release()
		return 0, merr.WrapErrCapacityExceeded(req, uint64(b.limit))
	}
	if req > uint64(len(b.buf)) {
		b.grow(int(req))
	}

	copy(b.buf[b.cur:], p)
	b.cur += n
	return n, nil
}

// WriteByte 向缓冲区追加单个字节。
func (b *Buffer) WriteByte(c byte) error {
	_, err := b.Write([]byte{c})
	return err
}

// WriteString 将字符串 s 的内容写入缓冲区。
func (b *Buffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

func (b *Buffer) grow(req int) {
	newBuf := make([]byte, nextCapacity(len(b.buf), req, b.limit))
	copy(newBuf, b.buf[:b.cur])
	b.buf = newBuf
	b.grows++
}

// nextCapacity 计算满足 req 的新容量：低于 GrowThreshold 时翻倍，之后按 GrowThreshold 线性增长，
// 结果不超过 limit。
func nextCapacity(size, req, limit int) int {
	if size == 0 {
		size = DefaultBufferSize
	}
	for size < req {
		size += min(size, GrowThreshold)
	}
	if size > limit {
		size = limit
	}
	return size
}

// ReadN 从游标处读取 n 个字节的拷贝并前移游标。
// 剩余数据不足 n 个字节时返回 ErrUnderrun，游标保持不变。
func (b *Buffer) ReadN(n int) ([]byte, error) {
	out := make([]byte, n)
	if err := b.ReadFull(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFull 从游标处读取恰好 len(dst) 个字节到 dst 中。
func (b *Buffer) ReadFull(dst []byte) error {
	n := len(dst)
	if uint64(b.cur)+uint64(n) > uint64(len(b.buf)) {
		return merr.WrapErrUnderrun(n, b.Remaining())
	}
	copy(dst, b.buf[b.cur:b.cur+n])
	b.cur += n
	return nil
}

// ReadByte 读取并返回下一个字节，缓冲区已读完时返回 ErrUnderrun。
func (b *Buffer) ReadByte() (byte, error) {
	if b.cur >= len(b.buf) {
		return 0, merr.WrapErrUnderrun(1, 0)
	}
	c := b.buf[b.cur]
	b.cur++
	return c, nil
}

// Read 实现 io.Reader 接口，尽可能多地读取剩余数据。
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.cur >= len(b.buf) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.cur:])
	b.cur += n
	return n, nil
}

// Bytes 返回游标之前的数据（写入模式下即全部已写入内容），不发生拷贝。
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.cur]
}

// Detach 将已写入内容的所有权转交给调用方，并释放 Buffer 自身。
func (b *Buffer) Detach() []byte {
	out := b.buf[:b.cur:b.cur]
	b.buf = nil
	b.cur = 0
	return out
}

// Release 释放底层存储，之后 Buffer 的长度与容量均为 0。
func (b *Buffer) Release() {
	b.buf = nil
	b.cur = 0
}

// Len 返回游标位置（写入模式下为逻辑内容长度）。
func (b *Buffer) Len() int {
	return b.cur
}

// Cap 返回当前容量。
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Remaining 返回游标之后尚未使用的字节数。
func (b *Buffer) Remaining() int {
	return len(b.buf) - b.cur
}

// Grows 返回自创建以来发生扩容的次数。
func (b *Buffer) Grows() int {
	return b.grows
}
