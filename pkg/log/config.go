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

package log

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 单个日志文件默认上限，单位 MB。
const defaultLogMaxSize = 300

// FileLogConfig 为 logging.<name>.file 配置段。
type FileLogConfig struct {
	// RootPath 为日志目录。
	RootPath string `json:"rootpath" mapstructure:"rootpath"`
	// Filename 为空时不写文件。
	Filename string `json:"filename" mapstructure:"filename"`
	// MaxSize 为单个文件上限，单位 MB，0 表示 300。
	MaxSize    int `json:"max-size" mapstructure:"max-size"`
	MaxDays    int `json:"max-days" mapstructure:"max-days"`
	MaxBackups int `json:"max-backups" mapstructure:"max-backups"`
}

// Config 为 logging.<name> 配置段，也用于 SERIAL_LOG_* 环境变量构造的全局日志。
type Config struct {
	Level string `json:"level" mapstructure:"level"`
	// Format 为 json 时输出 JSON，其余取值输出控制台格式。
	Format           string        `json:"format" mapstructure:"format"`
	DisableTimestamp bool          `json:"disable-timestamp" mapstructure:"disable-timestamp"`
	Stdout           bool          `json:"stdout" mapstructure:"stdout"`
	File             FileLogConfig `json:"file" mapstructure:"file"`
	Development      bool          `json:"development" mapstructure:"development"`
	DisableCaller    bool          `json:"disable-caller" mapstructure:"disable-caller"`
	// DisableStacktrace 关闭 Error 级别（开发模式下为 Warn）以上的堆栈采集。
	DisableStacktrace bool `json:"disable-stacktrace" mapstructure:"disable-stacktrace"`
	// DisableErrorVerbose 时编码器不输出堆栈字段。
	DisableErrorVerbose bool `json:"disable-error-verbose" mapstructure:"disable-error-verbose"`
	// Sampling 按秒采样，见 zapcore.NewSamplerWithOptions。
	Sampling *zap.SamplingConfig `json:"sampling" mapstructure:"sampling"`
}

// ZapProperties 记录已构建 logger 的 core、输出与级别。
type ZapProperties struct {
	Core   zapcore.Core
	Syncer zapcore.WriteSyncer
	Level  zap.AtomicLevel
}

func (cfg *Config) encoder() zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	if cfg.DisableTimestamp {
		ec.TimeKey = zapcore.OmitKey
	}
	if cfg.DisableErrorVerbose {
		ec.StacktraceKey = zapcore.OmitKey
	}
	if strings.EqualFold(cfg.Format, "json") {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func (cfg *Config) options(errSink zapcore.WriteSyncer) []zap.Option {
	opts := []zap.Option{zap.ErrorOutput(errSink)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(lo.Ternary(cfg.Development, zap.WarnLevel, zap.ErrorLevel)))
	}
	if s := cfg.Sampling; s != nil {
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewSamplerWithOptions(core, time.Second, s.Initial, s.Thereafter, zapcore.SamplerHook(s.Hook))
		}))
	}
	return opts
}
