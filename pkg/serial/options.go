package serial

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/danmu-serial/internal/pstream"
	"github.com/lk2023060901/danmu-serial/pkg/buffer/growable"
	"github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/metrics"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Format 为流格式。
type Format = pstream.Format

const (
	Binary = pstream.Binary
	XDR    = pstream.XDR
)

// ParseFormat 解析格式名，空串视为 binary。
func ParseFormat(name string) (Format, error) {
	return pstream.ParseFormat(name)
}

type options struct {
	// format 为流格式，默认小端二进制。
	format Format
	// initialSize 为输出缓冲区的初始容量。
	initialSize int
	// limit 为输出缓冲区允许的最大容量。
	limit int
	// strict 为 true 时无法编码的值返回错误，否则写为 NULL。
	strict bool
	// workers 为批量序列化的并发度，<= 0 时使用 CPU 核心数。
	workers  int
	logger   *log.MLogger
	fallback func(class string, payload []byte) (any, error)
}

func defaultOptions() *options {
	return &options{
		format:      pstream.Binary,
		initialSize: growable.DefaultBufferSize,
		limit:       growable.MaxLen,
	}
}

// Option 用于配置 Codec。
type Option func(opt *options)

func WithFormat(f Format) Option {
	return func(opt *options) {
		opt.format = f
	}
}

func WithInitialSize(n int) Option {
	return func(opt *options) {
		opt.initialSize = n
	}
}

func WithBufferLimit(n int) Option {
	return func(opt *options) {
		opt.limit = n
	}
}

func WithStrict(v bool) Option {
	return func(opt *options) {
		opt.strict = v
	}
}

func WithWorkers(n int) Option {
	return func(opt *options) {
		opt.workers = n
	}
}

func WithLogger(l *log.MLogger) Option {
	return func(opt *options) {
		opt.logger = l
	}
}

// WithFallback 设置读取到未注册类标签时的兜底处理，默认返回 handler.Unreconstructible。
func WithFallback(fn func(class string, payload []byte) (any, error)) Option {
	return func(opt *options) {
		opt.fallback = fn
	}
}

// WithMetrics 把钩子与调用耗时指标注册到 r。
func WithMetrics(r prometheus.Registerer) Option {
	return func(*options) {
		metrics.Register(r)
	}
}

// Config 对应配置文件中的 codec 段。
type Config struct {
	// Format 为流格式：binary 或 xdr。
	Format string `mapstructure:"format" json:"format"`
	// InitialBufferSize 为输出缓冲区初始容量，单位字节。
	InitialBufferSize int `mapstructure:"initial-buffer-size" json:"initial-buffer-size"`
	// BufferLimit 为输出缓冲区最大容量，0 表示不限制。
	BufferLimit int `mapstructure:"buffer-limit" json:"buffer-limit"`
	// Strict 表示无法编码的值是否报错。
	Strict bool `mapstructure:"strict" json:"strict"`
	// Compression 为 blob 负载使用的压缩算法：none、zstd 或 lz4。
	Compression string `mapstructure:"compression" json:"compression"`
	// Workers 为批量序列化的并发度。
	Workers int `mapstructure:"workers" json:"workers"`
}

// Options 把配置转换为 Codec 选项。
func (c Config) Options() ([]Option, error) {
	format, err := ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	if c.InitialBufferSize < 0 || c.BufferLimit < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("buffer sizes must not be negative")
	}
	return []Option{
		WithFormat(format),
		WithInitialSize(c.InitialBufferSize),
		WithBufferLimit(c.BufferLimit),
		WithStrict(c.Strict),
		WithWorkers(c.Workers),
	}, nil
}
