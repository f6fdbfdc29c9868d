package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Options configures the handler returned by NewHandler.
type Options struct {
	Writer io.Writer
	Level  string
}

// NewHandler returns a charmbracelet handler writing to opts.Writer, stderr by default.
func NewHandler(name string, opts Options) (slog.Handler, error) {
	level := log.InfoLevel

	if opts.Level != "" {
		var err error

		level, err = log.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          name,
		Level:           level,
	}), nil
}

// New returns a debug logger writing to stderr.
func New(name string) *slog.Logger {
	h, _ := NewHandler(name, Options{Level: "debug"})

	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	h, _ := NewHandler("", Options{Writer: io.Discard, Level: "error"})

	return slog.New(h)
}

type ctxKey struct{}

// IntoContext adds a logger to a context. Use FromContext to
// pull the logger out.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or the default slog logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}

	return slog.Default()
}

// SubLogger derives a logger from base by appending suffix to its prefix.
// Writer and level are kept when base uses a charmbracelet handler.
func SubLogger(base *slog.Logger, suffix string) *slog.Logger {
	if cl, ok := base.Handler().(*log.Logger); ok {
		prefix := cl.GetPrefix()
		if prefix != "" {
			prefix = prefix + "/" + suffix
		} else {
			prefix = suffix
		}

		return slog.New(cl.WithPrefix(prefix))
	}

	return base.With("component", suffix)
}
