package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
)

// PrettyHandler is a slog.Handler for terminal output. Records render as
//
//	[2006-01-02 15:04:05] WARN  message key=value key=value (runner.go:97)
//
// A record carrying both "file" and "line" attributes has them moved to a
// trailing call site. Colors are emitted only when the writer is a terminal
// and NO_COLOR is unset.
type PrettyHandler struct {
	opts   slog.HandlerOptions
	out    *prettyOutput
	prefix string
	attrs  []slog.Attr
}

// prettyOutput is shared by a handler and every handler derived from it, so
// concurrent children never interleave partial lines.
type prettyOutput struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

type palette struct {
	reset, bold, dim, attr string
}

var (
	colored = palette{reset: "\033[0m", bold: "\033[1m", dim: "\033[90m", attr: "\033[36m"}
	plain   = palette{}
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// NewPrettyHandler creates a new PrettyHandler.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{
		opts: *opts,
		out:  &prettyOutput{w: w, color: useColor(w)},
	}
}

func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && isTerminal(f.Fd())
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	p := plain
	if h.out.color {
		p = colored
	}

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "" {
			a.Key = h.prefix + a.Key
		}
		attrs = append(attrs, a)
		return true
	})
	attrs, site := splitCallSite(attrs)

	bp := bufPool.Get().(*[]byte)
	buf := (*bp)[:0]

	buf = append(buf, p.dim...)
	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, time.DateTime)
	buf = append(buf, ']')
	buf = append(buf, p.reset...)
	buf = append(buf, ' ')

	if h.out.color {
		buf = append(buf, levelColor(r.Level)...)
	}
	buf = append(buf, p.bold...)
	buf = appendLevel(buf, r.Level)
	buf = append(buf, p.reset...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if len(attrs) > 0 {
		buf = append(buf, ' ')
		buf = append(buf, p.attr...)
		for i, a := range attrs {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendAttr(buf, a)
		}
		buf = append(buf, p.reset...)
	}
	if site != "" {
		buf = append(buf, ' ')
		buf = append(buf, p.dim...)
		buf = append(buf, '(')
		buf = append(buf, site...)
		buf = append(buf, ')')
		buf = append(buf, p.reset...)
	}
	buf = append(buf, '\n')

	h.out.mu.Lock()
	_, err := h.out.w.Write(buf)
	h.out.mu.Unlock()

	*bp = buf
	bufPool.Put(bp)
	return err
}

// WithAttrs qualifies attrs with the current group before storing them.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	for _, a := range attrs {
		if a.Key != "" {
			a.Key = h.prefix + a.Key
		}
		merged = append(merged, a)
	}
	return &PrettyHandler{opts: h.opts, out: h.out, prefix: h.prefix, attrs: merged}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PrettyHandler{opts: h.opts, out: h.out, prefix: h.prefix + name + ".", attrs: h.attrs}
}

// splitCallSite removes top-level "file" and "line" attributes and returns
// them joined as "file:line". Both must be present.
func splitCallSite(attrs []slog.Attr) ([]slog.Attr, string) {
	fi, li := -1, -1
	for i, a := range attrs {
		switch a.Key {
		case "file":
			fi = i
		case "line":
			li = i
		}
	}
	if fi < 0 || li < 0 {
		return attrs, ""
	}
	site := attrs[fi].Value.Resolve().String() + ":" + attrs[li].Value.Resolve().String()
	rest := attrs[:0:0]
	for i, a := range attrs {
		if i != fi && i != li {
			rest = append(rest, a)
		}
	}
	return rest, site
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m"
	case level >= slog.LevelWarn:
		return "\033[33m"
	case level >= slog.LevelInfo:
		return "\033[34m"
	default:
		return "\033[90m"
	}
}

// appendLevel writes the level name padded to five columns.
func appendLevel(buf []byte, level slog.Level) []byte {
	s := level.String()
	buf = append(buf, s...)
	for n := len(s); n < 5; n++ {
		buf = append(buf, ' ')
	}
	return buf
}

func appendAttr(buf []byte, a slog.Attr) []byte {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			buf = append(buf, a.Key...)
			buf = append(buf, '=')
		}
		buf = append(buf, '{')
		for i, g := range v.Group() {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendAttr(buf, g)
		}
		return append(buf, '}')
	}

	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	switch v.Kind() {
	case slog.KindString:
		buf = appendString(buf, v.String())
	case slog.KindInt64:
		buf = strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		buf = strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		buf = strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		buf = strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		buf = append(buf, v.Duration().String()...)
	case slog.KindTime:
		buf = v.Time().AppendFormat(buf, time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			buf = appendString(buf, err.Error())
		} else {
			buf = appendString(buf, fmt.Sprint(v.Any()))
		}
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	if needsQuoting(s) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuoting(s string) bool {
	for _, c := range s {
		switch c {
		case ' ', '\t', '\n', '"', '=':
			return true
		}
	}
	return false
}
