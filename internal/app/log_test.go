package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPlaymapHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		session string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			session: "20240615T143045Z",
			level:   slog.LevelInfo,
			message: "playground created",
			want:    "2024-06-15T14:30:45Z\tINFO\t20240615T143045Z\tplayground created\n",
		},
		{
			name:    "warn level",
			session: "s-2",
			level:   slog.LevelWarn,
			message: "auto-save failed",
			want:    "2024-06-15T14:30:45Z\tWARN\ts-2\tauto-save failed\n",
		},
		{
			name:    "with record attrs",
			session: "s-3",
			level:   slog.LevelInfo,
			message: "orphaned photos removed",
			attrs:   []slog.Attr{slog.String("dir", "/data/photos"), slog.Int("count", 3)},
			want:    "2024-06-15T14:30:45Z\tINFO\ts-3\torphaned photos removed\tdir=/data/photos\tcount=3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newHandler(&buf, slog.LevelDebug, tt.session)

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestPlaymapHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newHandler(&buf, slog.LevelInfo, "s-1")
	h.attrs = []slog.Attr{slog.String("a", "1")}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "vault")}).(*playmapHandler)
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "backup exported", 0)
	r.AddAttrs(slog.String("name", "playgrounds-x.json"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"a=1", "component=vault", "name=playgrounds-x.json"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestPlaymapHandler_Enabled(t *testing.T) {
	h := newHandler(&bytes.Buffer{}, slog.LevelWarn, "s")

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, false},
		{slog.LevelInfo, false},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tt := range tests {
		if got := h.Enabled(context.Background(), tt.level); got != tt.want {
			t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "WARN", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-session", slog.LevelError)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("filtered out")
	logger.Error("kept", "id", "pg-1")

	data, err := os.ReadFile(filepath.Join(dir, LogFilename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	got := string(data)
	if strings.Contains(got, "filtered out") {
		t.Errorf("log contains a record below the level: %q", got)
	}
	if !strings.Contains(got, "\tERROR\ttest-session\tkept\tid=pg-1\n") {
		t.Errorf("log = %q, want the error record", got)
	}
}
