package log

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type bufferSyncer struct {
	bytes.Buffer
}

func (b *bufferSyncer) Sync() error { return nil }

func TestInitLoggerWithWriteSyncer(t *testing.T) {
	out := &bufferSyncer{}
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: "json"}, out)
	require.NoError(t, err)
	require.NotNil(t, props)

	lg.Debug("hidden")
	lg.Info("record written", zap.String("class", "blob"))
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"class":"blob"`)

	props.Level.SetLevel(zapcore.DebugLevel)
	lg.Debug("visible")
	assert.Contains(t, out.String(), "visible")
}

func TestInitLoggerBadLevel(t *testing.T) {
	_, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, &bufferSyncer{})
	assert.Error(t, err)
}

func TestConsoleWith(t *testing.T) {
	out := &bufferSyncer{}
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "debug", Format: "text", DisableTimestamp: true}, out)
	require.NoError(t, err)

	lg.With(FieldComponent("hook")).Warn("declined")
	assert.Contains(t, out.String(), "WARN")
	assert.Contains(t, out.String(), `"component": "hook"`)
}

func TestFileLog(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Level: "info", File: FileLogConfig{RootPath: dir, Filename: "serial.log"}}
	lg, _, err := InitLogger(cfg)
	require.NoError(t, err)
	lg.Info("to file")
	require.NoError(t, lg.Sync())
	Cleanup()

	data, err := os.ReadFile(filepath.Join(dir, "serial.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Equal(t, defaultLogMaxSize, cfg.File.MaxSize)
}

func TestFileLogRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	_, _, err := InitLogger(&Config{Level: "info", File: FileLogConfig{RootPath: dir, Filename: "sub"}})
	assert.Error(t, err)
}

type recordingT struct {
	testing.TB
	lines  []string
	failed bool
}

func (r *recordingT) Logf(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *recordingT) Fail() { r.failed = true }

func TestInitTestLogger(t *testing.T) {
	rt := &recordingT{TB: t}
	lg, _, err := InitTestLogger(rt, &Config{Level: "info", DisableTimestamp: true})
	require.NoError(t, err)

	lg.Debug("hidden")
	lg.Info("record read", FieldClass("blob"))
	require.Len(t, rt.lines, 1)
	assert.Contains(t, rt.lines[0], "record read")
	assert.Contains(t, rt.lines[0], `"class": "blob"`)
	assert.False(t, strings.HasSuffix(rt.lines[0], "\n"))
	assert.False(t, rt.failed)
}

func TestNewTestLogger(t *testing.T) {
	l := NewTestLogger(t)
	l.With(FieldModule("serial")).Debug("visible through t.Log")
}

func TestCleanupClosesEveryFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.log", "b.log"} {
		lg, _, err := InitLogger(&Config{Level: "info", File: FileLogConfig{RootPath: dir, Filename: name}})
		require.NoError(t, err)
		lg.Info("line", zap.String("file", name))
	}
	Cleanup()
	for _, name := range []string{"a.log", "b.log"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Contains(t, string(data), name)
	}
}

func TestTraceLevel(t *testing.T) {
	_, props, err := InitLoggerWithWriteSyncer(&Config{Level: "TRACE"}, &bufferSyncer{})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, props.Level.Level())
}

func TestBinder(t *testing.T) {
	var b Binder
	assert.NotNil(t, b.Logger())

	l := With(zap.String("k", "v"))
	b.SetLogger(l)
	assert.Same(t, l, b.Logger())
}

func TestRatedLogger(t *testing.T) {
	l := With().WithRateGroup("serial.test", 1, 1)
	assert.True(t, l.RatedInfo(1, "first"))
	assert.False(t, l.RatedInfo(1, "second"))

	// 同组 logger 共享额度，With 副本继承限流组。
	other := With(FieldComponent("hook")).WithRateGroup("serial.test", 1, 1)
	assert.False(t, other.RatedWarn(1, "third"))
	assert.False(t, l.With(FieldClass("blob")).RatedWarn(1, "fourth"))

	// 未绑定组时使用全局限流器，默认不限流。
	free := With()
	assert.True(t, free.RatedWarn(1, "a"))
	assert.True(t, free.RatedWarn(1, "b"))
}

func TestGlobalHelpers(t *testing.T) {
	out := &bufferSyncer{}
	prevL, prevP := L(), _globalP.Load().(*ZapProperties)
	defer ReplaceGlobals(prevL, prevP)

	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: "json"}, out)
	require.NoError(t, err)
	ReplaceGlobals(lg, props)

	Info("info line")
	Warn("warn line")
	Error("error line")
	SetLevel(zapcore.ErrorLevel)
	Warn("dropped")
	require.NoError(t, Sync())

	assert.Contains(t, out.String(), "info line")
	assert.Contains(t, out.String(), "warn line")
	assert.Contains(t, out.String(), "error line")
	assert.NotContains(t, out.String(), "dropped")
	assert.Contains(t, out.String(), "log_test.go", "caller points at the test, not the helper")
}
