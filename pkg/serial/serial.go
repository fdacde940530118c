// Package serial 是序列化钩子的对外入口。
//
// 宿主序列化器负责值树的遍历与原生编码；原生无法表示的值按类标签交给注册的处理器，
// 处理器产出的负载以带长度前缀的记录嵌入宿主字节流中。
package serial

import (
	"time"

	"github.com/samber/lo"

	"github.com/lk2023060901/danmu-serial/internal/hook"
	"github.com/lk2023060901/danmu-serial/internal/pstream"
	"github.com/lk2023060901/danmu-serial/internal/registry"
	"github.com/lk2023060901/danmu-serial/pkg/buffer/growable"
	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/metrics"
	"github.com/lk2023060901/danmu-serial/pkg/util/conc"
	"github.com/lk2023060901/danmu-serial/pkg/util/hardware"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Handler 为处理器接口，见 handler.Handler。
type Handler = handler.Handler

// Serialize 使用 names/handlers 构成的注册表把 v 编码为字节流。
func Serialize(v any, names []string, handlers []Handler, opts ...Option) ([]byte, error) {
	c, err := New(names, handlers, opts...)
	if err != nil {
		return nil, err
	}
	return c.Marshal(v)
}

// Deserialize 是 Serialize 的逆操作。
func Deserialize(data []byte, names []string, handlers []Handler, opts ...Option) (any, error) {
	c, err := New(names, handlers, opts...)
	if err != nil {
		return nil, err
	}
	return c.Unmarshal(data)
}

// SerializeAll 并发地对 values 中的每个值独立调用 Serialize，结果与输入一一对应。
func SerializeAll(values []any, names []string, handlers []Handler, opts ...Option) ([][]byte, error) {
	c, err := New(names, handlers, opts...)
	if err != nil {
		return nil, err
	}
	return c.MarshalAll(values)
}

// Codec 持有一个只读的处理器注册表，可被多个协程同时使用。
// 每次调用都会创建自己的缓冲区、流与会话 bundle。
type Codec struct {
	registry *hook.Registry
	opt      *options
}

// New 创建 Codec，names 与 handlers 长度不一致或存在重复类名时返回配置错误。
func New(names []string, handlers []Handler, opts ...Option) (*Codec, error) {
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	reg, err := registry.New(names, handlers)
	if err != nil {
		return nil, err
	}
	return &Codec{registry: reg, opt: opt}, nil
}

// Marshal 把 v 编码为字节流。
func (c *Codec) Marshal(v any) ([]byte, error) {
	start := time.Now()
	buf := growable.New(c.opt.initialSize)
	buf.SetLimit(c.opt.limit)

	out, err := pstream.NewOutStream(buf, c.opt.format, pstream.WithStrict(c.opt.strict))
	if err != nil {
		return nil, err
	}
	bundle := hook.NewSerializeBundle(out, c.registry)
	if c.opt.logger != nil {
		bundle.SetLogger(c.opt.logger)
	}
	out.SetHook(bundle.Serialize)

	if err := out.WriteHeader(); err != nil {
		buf.Release()
		return nil, err
	}
	if err := out.WriteItem(v); err != nil {
		buf.Release()
		return nil, err
	}
	observe(metrics.DirectionWrite, c.opt.format, start)
	return buf.Detach(), nil
}

// Unmarshal 解码 Marshal 产生的字节流，流的格式由头部决定。
func (c *Codec) Unmarshal(data []byte) (any, error) {
	start := time.Now()
	in := pstream.NewInStream(data)
	bundle := hook.NewUnserializeBundle(in, c.registry)
	if c.opt.logger != nil {
		bundle.SetLogger(c.opt.logger)
	}
	if c.opt.fallback != nil {
		bundle.SetFallback(c.opt.fallback)
	}
	in.SetHook(bundle.Unserialize)

	if _, err := in.ReadHeader(); err != nil {
		return nil, err
	}
	v, err := in.ReadItem()
	if err != nil {
		return nil, err
	}
	if in.Remaining() != 0 {
		return nil, merr.WrapErrMalformedRecord("trailing bytes after the root item")
	}
	observe(metrics.DirectionRead, in.Format(), start)
	return v, nil
}

// MarshalAll 使用协程池并发编码 values，任一失败则返回该错误。
// 单个值编码时发生的 panic 作为该值的错误返回。
func (c *Codec) MarshalAll(values []any) ([][]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	pool := conc.NewPool[[]byte](min(c.workers(), len(values)), conc.WithConcealPanic(true))
	defer pool.Release()

	futures := lo.Map(values, func(v any, _ int) *conc.Future[[]byte] {
		return pool.Submit(func() ([]byte, error) {
			return c.Marshal(v)
		})
	})
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}
	return lo.Map(futures, func(f *conc.Future[[]byte], _ int) []byte {
		return f.Value()
	}), nil
}

func (c *Codec) workers() int {
	if c.opt.workers > 0 {
		return c.opt.workers
	}
	return hardware.GetCPUNum()
}

func observe(direction string, format pstream.Format, start time.Time) {
	metrics.CallLatency.WithLabelValues(direction, format.String()).
		Observe(float64(time.Since(start).Microseconds()) / 1000)
}
