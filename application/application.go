package application

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	zlog "github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
	zviper "github.com/lk2023060901/danmu-serial/pkg/util/viper"
)

const (
	defaultConfigPath = "./serial.yaml"
	envPrefix         = "SERIAL"
)

// Application is the runtime container for serial tools.
// It owns configuration and manages common dependencies.
type Application struct {
	cfg     *zviper.Config
	loggers map[string]*zlog.MLogger
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run parses os.Args and loads the configuration file, see RunWithArgs.
func (a *Application) Run() error {
	return a.RunWithArgs(os.Args[1:])
}

// RunWithArgs loads the configuration file using the following priority:
//  1. Default: ./serial.yaml (optional, skipped when absent)
//  2. Env: SERIAL_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
//
// Then it initializes the global logger from SERIAL_LOG_* env vars and
// module loggers from the "logging" section.
func (a *Application) RunWithArgs(args []string) error {
	cfg, err := a.loadConfig(args)
	if err != nil {
		return err
	}
	a.cfg = cfg

	return a.initLogging()
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if a.loggers == nil {
		return &zlog.MLogger{Logger: zlog.L()}
	}
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// Codec returns the "codec" section; SERIAL_CODEC_* env vars override file values.
func (a *Application) Codec() serial.Config {
	cfg := a.cfg
	if cfg == nil {
		cfg = zviper.New()
		cfg.BindEnv(envPrefix)
	}
	return serial.Config{
		Format:            cfg.GetString("codec.format"),
		InitialBufferSize: cfg.GetInt("codec.initial-buffer-size"),
		BufferLimit:       cfg.GetInt("codec.buffer-limit"),
		Strict:            cfg.GetBool("codec.strict"),
		Compression:       cfg.GetString("codec.compression"),
		Workers:           cfg.GetInt("codec.workers"),
	}
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig(args []string) (*zviper.Config, error) {
	configPath := defaultConfigPath
	explicit := false

	if envPath := os.Getenv("SERIAL_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
		explicit = true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			explicit = true
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			val := strings.TrimPrefix(arg, "--config=")
			if val != "" {
				configPath = val
				explicit = true
			}
			continue
		}
	}

	cfg := zviper.New()
	cfg.BindEnv(envPrefix)
	if err := cfg.LoadFile(configPath); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}

	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	return a.initModuleLoggersFromConfig()
}

// initGlobalLoggerFromEnv configures the process-wide logger based on SERIAL_LOG_* env vars.
//
//   - SERIAL_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - SERIAL_LOG_LEVEL: log level (default "info").
//   - SERIAL_LOG_STDOUT: whether to log to stdout (default false).
//   - SERIAL_LOG_FILE_DIR: log directory.
//   - SERIAL_LOG_FILE: log file name (empty means no file).
//   - SERIAL_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("SERIAL_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:               getenvDefault("SERIAL_LOG_LEVEL", "info"),
		Format:              getenvDefault("SERIAL_LOG_FORMAT", "text"),
		Stdout:              getenvBool("SERIAL_LOG_STDOUT", false),
		DisableErrorVerbose: true,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("SERIAL_LOG_FILE_DIR", ""),
			Filename: getenvDefault("SERIAL_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from the "logging" key.
//
// Example:
//
//	logging:
//	  serialctl:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: serialctl.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger}
	}

	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
