package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// dailyFile is shared by every handler derived through WithAttrs/WithGroup.
type dailyFile struct {
	mutex    sync.Mutex
	logDir   string
	prefix   string
	file     *os.File
	fileName string
	now      func() time.Time
}

type DailyFileHandler struct {
	out            *dailyFile
	attrs          string
	group          string
	defaultHandler slog.Handler
}

func NewDailyFileHandler(logDir string, opts *slog.HandlerOptions) (*DailyFileHandler, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	h := &DailyFileHandler{
		out:            &dailyFile{logDir: logDir, prefix: "narration", now: time.Now},
		defaultHandler: slog.NewTextHandler(os.Stdout, opts),
	}
	if err := h.out.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return h, nil
}

// rotateIfNeeded must be called with the mutex held.
func (d *dailyFile) rotateIfNeeded() error {
	fileName := fmt.Sprintf("%s-%s.log", d.prefix, d.now().Format("2006-01-02"))
	if fileName == d.fileName {
		return nil
	}
	if d.file != nil {
		d.file.Close()
	}

	f, err := os.OpenFile(filepath.Join(d.logDir, fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	d.file = f
	d.fileName = fileName
	return nil
}

func (d *dailyFile) write(line string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if err := d.rotateIfNeeded(); err != nil {
		return err
	}
	_, err := d.file.WriteString(line)
	return err
}

func (h *DailyFileHandler) Handle(ctx context.Context, r slog.Record) error {
	timeStr := r.Time.Format("2006/01/02 15:04:05.000")

	var attrs strings.Builder
	attrs.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		attrs.WriteString(formatAttr(h.group, a))
		return true
	})

	logLine := fmt.Sprintf("[%s] %-5s %s%s\n", timeStr, r.Level.String(), r.Message, attrs.String())
	err := h.out.write(logLine)

	// Also log to stdout
	if err2 := h.defaultHandler.Handle(ctx, r); err2 != nil && err == nil {
		err = err2
	}
	return err
}

func formatAttr(group string, a slog.Attr) string {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	return fmt.Sprintf(" %s=%v", key, a.Value)
}

func (h *DailyFileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		b.WriteString(formatAttr(h.group, a))
	}
	return &DailyFileHandler{
		out:            h.out,
		attrs:          b.String(),
		group:          h.group,
		defaultHandler: h.defaultHandler.WithAttrs(attrs),
	}
}

func (h *DailyFileHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &DailyFileHandler{
		out:            h.out,
		attrs:          h.attrs,
		group:          group,
		defaultHandler: h.defaultHandler.WithGroup(name),
	}
}

func (h *DailyFileHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.defaultHandler.Enabled(ctx, level)
}

// Close closes the current log file.
func (h *DailyFileHandler) Close() error {
	h.out.mutex.Lock()
	defer h.out.mutex.Unlock()
	if h.out.file == nil {
		return nil
	}
	err := h.out.file.Close()
	h.out.file, h.out.fileName = nil, ""
	return err
}
