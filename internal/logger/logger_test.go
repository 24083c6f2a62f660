package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		build  func(*bytes.Buffer) Logger
		hidden string
		shown  string
	}{
		{
			name:   "json at warn",
			build:  func(b *bytes.Buffer) Logger { return JSON(b, slog.LevelWarn) },
			hidden: "encoding loaded",
			shown:  "session limit reached",
		},
		{
			name:   "pretty at info",
			build:  func(b *bytes.Buffer) Logger { return Pretty(b, slog.LevelInfo) },
			hidden: "header parsed",
			shown:  "server listening",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := tc.build(&buf)
			log.Debug(tc.hidden)
			log.Info(tc.hidden)
			log.Warn(tc.shown)
			if strings.Contains(buf.String(), tc.hidden) {
				t.Fatalf("filtered record written: %s", buf.String())
			}
			if !strings.Contains(buf.String(), tc.shown) {
				t.Fatalf("expected %q in output, got: %s", tc.shown, buf.String())
			}
		})
	}
}

func TestJSONAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).With("session", "parser_1").WithGroup("feed")
	log.Info("tokens accepted", "count", 3)

	out := buf.String()
	for _, want := range []string{`"session":"parser_1"`, `"feed":{"count":3}`, `"level":"INFO"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output, got: %s", want, out)
		}
	}
}

func TestContext(t *testing.T) {
	t.Parallel()
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without a logger returned nil")
	}

	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Fatalf("expected message via context logger, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	} {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		log  func(h *PrettyHandler)
		want []string
		deny []string
	}{
		{
			name: "attrs",
			log: func(h *PrettyHandler) {
				slog.New(h.WithAttrs([]slog.Attr{slog.String("encoding", "HarmonyGptOss")})).Info("loaded")
			},
			want: []string{"loaded", "encoding=HarmonyGptOss"},
		},
		{
			name: "nested groups",
			log: func(h *PrettyHandler) {
				slog.New(h.WithGroup("api").WithGroup("feed")).Info("token", "index", 4)
			},
			want: []string{"api.feed.index=4"},
		},
		{
			name: "quoting",
			log: func(h *PrettyHandler) {
				slog.New(h).Info("parsed", "channel", "final", "content", "two words")
			},
			want: []string{"channel=final", `content="two words"`},
			deny: []string{`channel="final"`},
		},
		{
			name: "group value",
			log: func(h *PrettyHandler) {
				slog.New(h).Info("parsed", slog.Group("msg", slog.String("role", "assistant"), slog.Int("parts", 2)))
			},
			want: []string{"msg={role=assistant parts=2}"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tc.log(NewPrettyHandler(&buf, nil))
			for _, w := range tc.want {
				if !strings.Contains(buf.String(), w) {
					t.Fatalf("expected %q in output, got: %s", w, buf.String())
				}
			}
			for _, d := range tc.deny {
				if strings.Contains(buf.String(), d) {
					t.Fatalf("unexpected %q in output, got: %s", d, buf.String())
				}
			}
		})
	}

	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) || !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("handler ignores its level")
	}
	if h.WithGroup("") != h {
		t.Fatal("WithGroup(\"\") should return the same handler")
	}
	for in, want := range map[string]bool{"final": false, "two words": true, "a\tb": true, `say "hi"`: true, "": false} {
		if needsQuoting(in) != want {
			t.Errorf("needsQuoting(%q) != %v", in, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatPretty, false},
		{"pretty", FormatPretty, false},
		{"JSON", FormatJSON, false},
		{"text", FormatText, false},
		{"logfmt", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.input)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseFormat(%q): unexpected error state: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}

func TestNewFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, `"msg":"rendered"`},
		{FormatText, `msg=rendered`},
		{FormatPretty, `rendered tokens=12`},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		log, err := NewFormat(tc.format, &buf, slog.LevelInfo)
		if err != nil {
			t.Fatalf("NewFormat(%q): %v", tc.format, err)
		}
		log.Info("rendered", "tokens", 12)
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("NewFormat(%q): expected %q in output, got: %s", tc.format, tc.want, buf.String())
		}
	}

	if _, err := NewFormat("xml", &bytes.Buffer{}, slog.LevelInfo); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestAsSlog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).With("component", "api")

	AsSlog(log).Info("via slog")
	if !strings.Contains(buf.String(), `"component":"api"`) {
		t.Fatalf("expected attrs carried to slog logger, got: %s", buf.String())
	}
	if AsSlog(nopLogger{}) == nil {
		t.Fatal("AsSlog returned nil for foreign logger")
	}
	Discard().Info("dropped")
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)      {}
func (nopLogger) Info(string, ...any)       {}
func (nopLogger) Warn(string, ...any)       {}
func (nopLogger) Error(string, ...any)      {}
func (n nopLogger) With(...any) Logger      { return n }
func (n nopLogger) WithGroup(string) Logger { return n }
