package log

import (
	"bytes"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// InitTestLogger 构建写入 t.Log 的 logger，zap 自身的内部错误会使测试失败。
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	w := testingWriter{t: t}
	opts = append([]zap.Option{zap.ErrorOutput(testingWriter{t: t, failOnWrite: true})}, opts...)
	return InitLoggerWithWriteSyncer(cfg, w, opts...)
}

// NewTestLogger 是 InitTestLogger 的简写，返回 debug 级别、不带时间戳的 MLogger。
func NewTestLogger(t zaptest.TestingT) *MLogger {
	lg, _, err := InitTestLogger(t, &Config{Level: "debug", DisableTimestamp: true})
	if err != nil {
		t.Errorf("init test logger: %v", err)
		t.FailNow()
	}
	return &MLogger{Logger: lg}
}

type testingWriter struct {
	t           zaptest.TestingT
	failOnWrite bool
}

func (w testingWriter) Write(p []byte) (int, error) {
	// t.Logf 自带换行。
	w.t.Logf("%s", bytes.TrimRight(p, "\n"))
	if w.failOnWrite {
		w.t.Fail()
	}
	return len(p), nil
}

func (testingWriter) Sync() error {
	return nil
}
