package hook

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/metrics"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Unserialize 是宿主的输入钩子，names 为宿主从伪造记录中读出的名字列表。
//
// 类标签未注册且没有兜底处理时返回 handler.Unreconstructible，负载被丢弃；
// 处理器失败时返回 ErrHandlerFailure，整个反序列化随之失败。
func (b *UnserializeBundle) Unserialize(names []string) (any, error) {
	if len(names) != 1 {
		return nil, merr.WrapErrMalformedRecord("expected exactly one persist name")
	}
	size, err := ParseSize(names[0])
	if err != nil {
		return nil, err
	}
	tag, err := readTag(b.stream)
	if err != nil {
		return nil, err
	}

	if rem := b.stream.Remaining(); rem >= 0 && size > uint64(rem) {
		return nil, merr.WrapErrUnderrun(int(size), rem, "payload")
	}
	payload := make([]byte, size)
	if err := readChunked(b.stream, payload, b.maxChunk); err != nil {
		return nil, err
	}
	if err := skipWrapper(b.stream); err != nil {
		return nil, err
	}

	metrics.HookRecords.WithLabelValues(metrics.DirectionRead).Inc()
	metrics.HookPayloadBytes.WithLabelValues(metrics.DirectionRead).Observe(float64(size))

	h, ok := b.registry.Lookup(tag)
	if !ok && b.fallback != nil {
		h, ok = fallbackHandler(tag, b.fallback), true
	}
	if !ok {
		metrics.HookUnknownTags.Inc()
		b.Logger().RatedWarn(1, "no handler for class tag, payload discarded",
			log.FieldClass(tag), zap.Uint64("size", size))
		return handler.Unreconstructible{Class: tag, Size: size}, nil
	}

	v, err := invokeUnserialize(h, payload)
	if err != nil {
		return nil, merr.WrapErrHandlerFailure(tag, err)
	}
	return v, nil
}

func invokeUnserialize(h handler.Handler, data []byte) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, errors.Newf("handler panicked: %v", r)
		}
	}()
	return h.Unserialize(data)
}

func fallbackHandler(class string, fn Fallback) handler.Handler {
	return handler.Funcs{
		UnserializeFunc: func(data []byte) (any, error) {
			return fn(class, data)
		},
	}
}
