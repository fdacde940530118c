package main

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/handler/compressor"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
)

const (
	blobClass = "blob"
	streamExt = ".srl"
)

// blobClassFor 返回使用 algo 压缩的文件对应的类标签，例如 "blob.zstd"。
func blobClassFor(algo string) (string, error) {
	switch algo = strings.ToLower(strings.TrimSpace(algo)); algo {
	case "", compressor.NameNone:
		return blobClass, nil
	case compressor.NameZstd, compressor.NameLZ4:
		return blobClass + "." + algo, nil
	default:
		return "", errors.Newf("unknown compression %q", algo)
	}
}

// blobHandlers 注册所有文件类标签，读取端据此自动识别压缩算法。
// 返回的 release 用于关闭 zstd 编解码器。
func blobHandlers() (names []string, handlers []serial.Handler, release func(), err error) {
	zstd, err := compressor.NewZstdCompressor()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "init zstd")
	}
	zstdClass := blobClass + "." + compressor.NameZstd
	lz4Class := blobClass + "." + compressor.NameLZ4

	names = []string{blobClass, zstdClass, lz4Class}
	handlers = []serial.Handler{
		handler.Raw(blobClass),
		handler.Compressed(handler.Raw(zstdClass), zstd),
		handler.Compressed(handler.Raw(lz4Class), compressor.NewLZ4Compressor()),
	}
	return names, handlers, zstd.Close, nil
}
