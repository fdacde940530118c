package compressor

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor 使用 lz4 block 模式压缩单个负载。
//
// 输出格式：模式字节 + uvarint(原始长度) + block 数据。
// 数据不可压缩时退化为 raw 模式，只存模式字节与原文。
// 压缩使用 lz4 包内部的哈希表池，实例可被并发使用。
type LZ4Compressor struct{}

var _ Compressor = (*LZ4Compressor)(nil)

func NewLZ4Compressor() *LZ4Compressor {
	return &LZ4Compressor{}
}

func (*LZ4Compressor) Compress(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return appendRaw(dst[:0], src), nil
	}
	var hdr [1 + binary.MaxVarintLen64]byte
	hdr[0] = modeCompressed
	n := 1 + binary.PutUvarint(hdr[1:], uint64(len(src)))

	bound := lz4.CompressBlockBound(len(src))
	out := append(dst[:0], hdr[:n]...)
	if cap(out)-len(out) < bound {
		grown := make([]byte, len(out), len(out)+bound)
		copy(grown, out)
		out = grown
	}
	written, err := lz4.CompressBlock(src, out[n:n+bound], nil)
	if err != nil {
		return nil, err
	}
	// 0 表示不可压缩。
	if written == 0 || written >= len(src) {
		return appendRaw(out[:0], src), nil
	}
	return out[:n+written], nil
}

func (*LZ4Compressor) Decompress(dst, src []byte) ([]byte, error) {
	mode, body, err := splitMode(src)
	if err != nil {
		return nil, err
	}
	if mode == modeRaw {
		return append(dst[:0], body...), nil
	}
	size, n := binary.Uvarint(body)
	if n <= 0 {
		return nil, errTruncated
	}
	body = body[n:]
	// 单个 block 的解压上限不会超过 255 倍压缩长度。
	if size > uint64(len(body))*255+16 {
		return nil, fmt.Errorf("compressor: lz4 declared size %d is implausible for %d input bytes", size, len(body))
	}
	out := dst[:0]
	if uint64(cap(out)) < size {
		out = make([]byte, size)
	} else {
		out = out[:size]
	}
	got, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, err
	}
	if uint64(got) != size {
		return nil, fmt.Errorf("compressor: lz4 size mismatch, want %d got %d", size, got)
	}
	return out, nil
}
