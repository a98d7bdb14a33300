package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level      string // debug / info / warn / error
	JSON       bool   // 生产环境 JSON，本地彩色 console
	File       string // 非空时额外写入文件并按大小切割
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New 返回 logger 与退出前需要调用的 flush
func New(opt Options) (*zap.Logger, func()) {
	var lvl zapcore.Level
	if err := lvl.Set(opt.Level); err != nil {
		lvl = zapcore.InfoLevel
	}

	var enc zapcore.Encoder
	if opt.JSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.TimeKey = "ts"
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl)}

	var rotator *lumberjack.Logger
	if opt.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    max(1, opt.MaxSizeMB),
			MaxBackups: max(0, opt.MaxBackups),
			MaxAge:     max(0, opt.MaxAgeDays),
			Compress:   opt.Compress,
		}
		// 文件里不要颜色码
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCfg.TimeKey = "ts"
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)

	opts := []zap.Option{zap.AddCaller()}
	if !opt.JSON {
		opts = append(opts, zap.Development())
	}
	l := zap.New(core, opts...)
	cleanup := func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return l, cleanup
}

// RedirectStdLog 把标准库 log 的输出（第三方库）接到 zap
func RedirectStdLog(l *zap.Logger) func() {
	undo, err := zap.RedirectStdLogAt(l, zapcore.WarnLevel)
	if err != nil {
		return func() {}
	}
	return undo
}
