package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

var levelNames = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiGray,
	slog.LevelInfo:  ansiCyan,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler is a slog.Handler for human-readable terminal output:
//
//	[HH:MM:SS] [LEVEL] [SCOPE] message key=value key=value
//
// The scope attribute renders once in brackets rather than as a pair. Group
// names become dotted key prefixes. Colors switch on only when the writer is
// a terminal.
type ConsoleHandler struct {
	w     io.Writer
	mu    *sync.Mutex // shared across clones so writes stay serialized
	level slog.Level
	color bool

	scope  string
	prefix string // accumulated group path: "" or "api." or "api.request."
	attrs  []slog.Attr
}

// NewConsoleHandler creates a console handler writing to w.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &ConsoleHandler{
		w:     w,
		mu:    &sync.Mutex{},
		level: level,
		color: color,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	h.paint(&b, ansiGray, "["+r.Time.Format("15:04:05")+"]")
	b.WriteByte(' ')
	h.paint(&b, levelColors[r.Level], "["+levelName(r.Level)+"]")
	if h.scope != "" {
		b.WriteString(" [" + h.scope + "]")
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&b, a, "")
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, a, h.prefix)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// paint writes text wrapped in an ANSI color when colors are on.
func (h *ConsoleHandler) paint(b *strings.Builder, color, text string) {
	if !h.color {
		b.WriteString(text)
		return
	}
	b.WriteString(color)
	b.WriteString(text)
	b.WriteString(ansiReset)
}

// writeAttr appends one " key=value" pair, flattening groups into dotted
// keys and quoting values that would break the flat format.
func (h *ConsoleHandler) writeAttr(b *strings.Builder, a slog.Attr, prefix string) {
	a.Value = a.Value.Resolve()
	if a.Key == "scope" {
		return // rendered in brackets already
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			key := ga.Key
			if a.Key != "" {
				key = a.Key + "." + ga.Key
			}
			h.writeAttr(b, slog.Attr{Key: key, Value: ga.Value}, prefix)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	val := fmt.Sprint(a.Value.Any())
	if strings.ContainsAny(val, " \t=\"") {
		val = strconv.Quote(val)
	}
	b.WriteString(val)
}

// WithAttrs returns a clone carrying the extra attributes. A top-level
// "scope" attribute becomes the bracketed scope instead of a pair.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(clone.attrs, h.attrs)
	for _, a := range attrs {
		if a.Key == "scope" && h.prefix == "" {
			clone.scope = a.Value.String()
			continue
		}
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &clone
}

// WithGroup returns a clone that qualifies later attribute keys with the
// group name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func levelName(level slog.Level) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return level.String()
}
