// Package logger builds the slog.Logger used for diagnostics.
//
// Logs always go to a separate stream from the progress report (stderr in the
// CLI). On a terminal the tint handler gives compact coloured output; anything
// else gets slog's logfmt text handler, or JSON on request.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Formats accepted by Options.Format.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormats lists the accepted log formats.
var ValidFormats = []string{FormatAuto, FormatText, FormatJSON}

// Options configures New.
type Options struct {
	// Level is the minimum level emitted.
	Level slog.Level

	// Format is one of ValidFormats. Empty means FormatAuto.
	Format string

	// NoColor disables colour in terminal output.
	NoColor bool
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	h, err := newHandler(w, opts)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(w io.Writer, opts Options) (slog.Handler, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = FormatAuto
	}

	switch format {
	case FormatAuto:
		if isTerminal(w) {
			return newTerminalHandler(w, opts), nil
		}
		return newTextHandler(w, opts), nil
	case FormatText:
		return newTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level}), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be one of %v", opts.Format, ValidFormats)
	}
}

func newTextHandler(w io.Writer, opts Options) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl, ok := a.Value.Any().(slog.Level)
				if ok {
					return slog.String(a.Key, strings.ToLower(lvl.String()))
				}
			}
			return a
		},
	})
}

func newTerminalHandler(w io.Writer, opts Options) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		NoColor: opts.NoColor || runtime.GOOS == "windows",
		Level:   opts.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Progress output already orders events; timestamps are noise here.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
