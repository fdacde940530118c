// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log 是序列化库与 serialctl 共用的 zap 日志封装。
//
// 进程启动时全局 logger 以 debug 级别写 stderr；application 按 SERIAL_LOG_* 环境变量重建它，
// 并按配置文件的 logging 段创建具名 logger。
package log

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	_globalL, _globalHelperL, _globalS, _globalP, _globalR atomic.Value

	_namedRateLimiters sync.Map

	cleanupMu sync.Mutex
	cleanups  []func()
)

// RateLimiter 为限流日志使用的额度检查接口。
type RateLimiter interface {
	CheckCredit(delta float64) bool
}

type nopRateLimiter struct{}

// limiterBox 保证 _globalR 中存储的具体类型始终一致。
type limiterBox struct{ RateLimiter }

func (nopRateLimiter) CheckCredit(float64) bool { return true }

func init() {
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "debug", DisableErrorVerbose: true}, zapcore.Lock(os.Stderr))
	if err != nil {
		panic(err)
	}
	ReplaceGlobals(lg, props)
	configureRateLimiterFromEnv()
}

// InitLogger 按 cfg 构建 logger，输出到文件（lumberjack 轮转）和/或标准输出。
// 两者都未开启时日志被丢弃。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	var outputs []zapcore.WriteSyncer
	if cfg.File.Filename != "" {
		lg, err := initFileLog(&cfg.File)
		if err != nil {
			return nil, nil, err
		}
		registerCleanup(func() { _ = lg.Close() })
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout {
		outputs = append(outputs, zapcore.Lock(os.Stdout))
	}
	return InitLoggerWithWriteSyncer(cfg, zap.CombineWriteSyncers(outputs...), opts...)
}

// InitLoggerWithWriteSyncer 按 cfg 构建写入 output 的 logger。级别 trace 视同 debug。
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	levelName := cfg.Level
	if strings.EqualFold(levelName, "trace") {
		levelName = "debug"
	}
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	core := zapcore.NewCore(cfg.encoder(), output, level)
	lg := zap.New(core, append(cfg.options(output), opts...)...)
	return lg, &ZapProperties{Core: core, Syncer: output, Level: level}, nil
}

func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	logPath := filepath.Join(cfg.RootPath, cfg.Filename)
	if st, err := os.Stat(logPath); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %s is a directory", logPath)
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

// L 返回全局 logger，可通过 ReplaceGlobals 替换，并发安全。
func L() *zap.Logger {
	return _globalL.Load().(*zap.Logger)
}

// S 返回全局 SugaredLogger。
func S() *zap.SugaredLogger {
	return _globalS.Load().(*zap.SugaredLogger)
}

// helperL 供包级 Info/Warn/Error 使用，多跳过一层调用栈。
func helperL() *zap.Logger {
	return _globalHelperL.Load().(*zap.Logger)
}

// R 返回全局限流器，未通过 SERIAL_LOG_RATE_ENABLE 开启时不丢弃任何日志。
func R() RateLimiter {
	if box, ok := _globalR.Load().(limiterBox); ok && box.RateLimiter != nil {
		return box.RateLimiter
	}
	return nopRateLimiter{}
}

// ReplaceGlobals 替换全局 logger。
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalHelperL.Store(logger.WithOptions(zap.AddCallerSkip(1)))
	_globalS.Store(logger.Sugar())
	_globalP.Store(props)
}

// Level 返回全局 logger 的可调级别。
func Level() zap.AtomicLevel {
	return _globalP.Load().(*ZapProperties).Level
}

// SetLevel 调整全局日志级别。
func SetLevel(l zapcore.Level) {
	Level().SetLevel(l)
}

// Sync 刷新全局 logger 的缓冲。
func Sync() error {
	return L().Sync()
}

// Cleanup 关闭 InitLogger 打开的日志文件。
func Cleanup() {
	cleanupMu.Lock()
	fns := cleanups
	cleanups = nil
	cleanupMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func registerCleanup(fn func()) {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	cleanups = append(cleanups, fn)
}

// configureRateLimiterFromEnv 读取 SERIAL_LOG_RATE_* 配置全局限流器：
//
//   - SERIAL_LOG_RATE_ENABLE：默认关闭。
//   - SERIAL_LOG_RATE_CREDIT_PER_SECOND：默认 1。
//   - SERIAL_LOG_RATE_MAX_BALANCE：默认 60。
func configureRateLimiterFromEnv() {
	if !getenvBool("SERIAL_LOG_RATE_ENABLE", false) {
		_globalR.Store(limiterBox{nopRateLimiter{}})
		return
	}
	credit := getenvFloat("SERIAL_LOG_RATE_CREDIT_PER_SECOND", 1)
	maxBalance := getenvFloat("SERIAL_LOG_RATE_MAX_BALANCE", 60)
	_globalR.Store(limiterBox{utils.NewRateLimiter(credit, maxBalance)})
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return f
}
