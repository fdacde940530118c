package hook

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/internal/registry"
	"github.com/lk2023060901/danmu-serial/pkg/buffer/growable"
	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/metrics"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Serialize 是宿主的输出钩子。
//
// 没有匹配的处理器或处理器失败时返回 nil, nil（拒绝处理），此时尚未写出任何字节。
// 值的 ClassTags 发生 panic 与处理器失败同样处理。
// 成功时写出完整记录并返回哨兵名字列表 [""]，宿主随后会再写一层包装记录。
func (b *SerializeBundle) Serialize(v any) ([]string, error) {
	tags, err := classTags(v)
	if err != nil {
		metrics.HookDeclines.WithLabelValues(metrics.ReasonHandlerFailure).Inc()
		b.Logger().RatedWarn(1, "class tags failed, value declined", zap.Error(err))
		return nil, nil
	}
	h, tag, ok := registry.Resolve(tags, b.registry)
	if !ok {
		metrics.HookDeclines.WithLabelValues(metrics.ReasonNoHandler).Inc()
		b.Logger().Debug("no handler for value", zap.Strings("classTags", tags))
		return nil, nil
	}
	if strings.IndexByte(tag, 0) >= 0 {
		metrics.HookDeclines.WithLabelValues(metrics.ReasonInvalidTag).Inc()
		b.Logger().RatedWarn(1, "class tag contains a NUL byte", log.FieldClass(tag))
		return nil, nil
	}

	payload, err := invokeSerialize(h, v)
	if err != nil {
		metrics.HookDeclines.WithLabelValues(metrics.ReasonHandlerFailure).Inc()
		b.Logger().RatedWarn(1, "handler failed, value declined", log.FieldClass(tag), zap.Error(err))
		return nil, nil
	}

	size := uint64(len(payload))
	if size > uint64(growable.MaxLen) {
		return nil, merr.WrapErrSizeTooLarge(FormatSize(size), uint64(growable.MaxLen))
	}
	if err := writeHeader(b.stream, size); err != nil {
		return nil, err
	}
	if err := b.stream.OutBytes(append([]byte(tag), 0)); err != nil {
		return nil, err
	}
	if err := writeChunked(b.stream, payload, b.maxChunk); err != nil {
		return nil, err
	}

	metrics.HookRecords.WithLabelValues(metrics.DirectionWrite).Inc()
	metrics.HookPayloadBytes.WithLabelValues(metrics.DirectionWrite).Observe(float64(size))
	return []string{""}, nil
}

func classTags(v any) (tags []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags, err = nil, errors.Newf("class tags panicked: %v", r)
		}
	}()
	return handler.ClassTags(v), nil
}

func invokeSerialize(h handler.Handler, v any) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, errors.Newf("handler panicked: %v", r)
		}
	}()
	return h.Serialize(v)
}
