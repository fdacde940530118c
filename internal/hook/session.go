// Package hook 实现了宿主序列化器的持久化名字钩子：
// 把不透明值交给已注册的处理器编码，并以宿主自身的字符串记录格式嵌入字节流。
package hook

import (
	"github.com/lk2023060901/danmu-serial/internal/registry"
	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/log"
)

// OutStream 是序列化钩子依赖的宿主输出原语，整数按宿主流的字节序写出。
type OutStream interface {
	OutInteger(v int32) error
	OutBytes(p []byte) error
}

// InStream 是反序列化钩子依赖的宿主输入原语。
// Remaining 返回剩余输入字节数，无法得知时返回负数。
type InStream interface {
	InInteger() (int32, error)
	InBytes(dst []byte) error
	Remaining() int
}

// Registry 为钩子使用的处理器注册表。
type Registry = registry.Registry[handler.Handler]

// SerializeBundle 把一次序列化调用所需的流与注册表绑定在一起。
// 它只存在于单次调用链中，嵌套调用各自持有自己的 bundle。
type SerializeBundle struct {
	log.Binder
	stream   OutStream
	registry *Registry
	maxChunk int
}

// NewSerializeBundle 创建序列化 bundle。
func NewSerializeBundle(stream OutStream, reg *Registry) *SerializeBundle {
	b := &SerializeBundle{stream: stream, registry: reg, maxChunk: MaxChunk}
	b.SetLogger(hookLogger())
	return b
}

// Stream 返回绑定的输出流。
func (b *SerializeBundle) Stream() OutStream {
	return b.stream
}

// Registry 返回绑定的注册表。
func (b *SerializeBundle) Registry() *Registry {
	return b.registry
}

// Fallback 在读到未注册的类标签时被调用，返回值替代 handler.Unreconstructible。
type Fallback func(class string, payload []byte) (any, error)

// UnserializeBundle 是 SerializeBundle 在读取方向上的对应物。
type UnserializeBundle struct {
	log.Binder
	stream   InStream
	registry *Registry
	fallback Fallback
	maxChunk int
}

// NewUnserializeBundle 创建反序列化 bundle。
func NewUnserializeBundle(stream InStream, reg *Registry) *UnserializeBundle {
	b := &UnserializeBundle{stream: stream, registry: reg, maxChunk: MaxChunk}
	b.SetLogger(hookLogger())
	return b
}

// SetFallback 设置未注册类标签的兜底处理。
func (b *UnserializeBundle) SetFallback(fn Fallback) {
	b.fallback = fn
}

func (b *UnserializeBundle) Stream() InStream {
	return b.stream
}

func (b *UnserializeBundle) Registry() *Registry {
	return b.registry
}

// hookLogger 的告警按 serial.hook 组限流，批量数据中大量失败的值不会刷屏。
func hookLogger() *log.MLogger {
	return log.With(log.FieldModule("serial"), log.FieldComponent("hook")).
		WithRateGroup("serial.hook", 1, 60)
}
