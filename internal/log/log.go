package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"grocerly/internal/config"
	"grocerly/internal/domain"
)

// LevelAudit sits between info and warn so audit lines survive LOG_LEVEL=info.
const LevelAudit = slog.Level(2)

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	logger = newLogger(os.Stdout)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "ts"
			case slog.MessageKey:
				a.Key = "action"
			case slog.LevelKey:
				a.Value = slog.StringValue(levelName(a.Value.Any().(slog.Level)))
			}
			return a
		},
	}))
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warn"
	case l >= LevelAudit:
		return "audit"
	case l >= slog.LevelInfo:
		return "info"
	}
	return "debug"
}

// Setup points the logger at stdout and, when cfg.File is set, a rotating file.
func Setup(cfg config.Log) error {
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}

	var w io.Writer = os.Stdout
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return err
		}
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	SetOutput(w)
	return nil
}

// SetOutput replaces the sink. Tests use it to capture entries.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func write(lvl slog.Level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	attrs := make([]slog.Attr, 0, 8)
	if c != nil {
		attrs = append(attrs,
			slog.String("ip", c.IP()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			attrs = append(attrs, slog.String("req_id", rid))
		}
		if id, ok := c.Locals("user").(*domain.Identity); ok && id != nil {
			attrs = append(attrs, slog.Int64("user_id", id.UserID))
		}
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	if len(fields) > 0 {
		attrs = append(attrs, slog.Any("fields", fields))
	}
	get().LogAttrs(context.Background(), lvl, action, attrs...)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write(slog.LevelInfo, c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(LevelAudit, c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelWarn, c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(slog.LevelError, c, action, err, fields)
}
