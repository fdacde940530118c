package log

import "go.uber.org/atomic"

// Binder 嵌入到需要独立 logger 的组件中，例如钩子 bundle。
// 未绑定时 Logger 返回全局 logger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

func (b *Binder) SetLogger(logger *MLogger) {
	b.logger.Store(logger)
}

func (b *Binder) Logger() *MLogger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	return With()
}
