package logging

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeLevels(t *testing.T) {
	tests := []struct {
		level       string
		wantEnabled zapcore.Level
		wantOff     zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"bogus", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if err := Initialize(tt.level); err != nil {
				t.Fatalf("Initialize(%q) error = %v", tt.level, err)
			}
			core := GetLogger().Core()
			if !core.Enabled(tt.wantEnabled) {
				t.Errorf("level %s should be enabled", tt.wantEnabled)
			}
			if core.Enabled(tt.wantOff) {
				t.Errorf("level %s should be disabled", tt.wantOff)
			}
		})
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := InitializeFromEnv(); err != nil {
		t.Fatal(err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	if err := InitializeFromEnv(); err != nil {
		t.Fatal(err)
	}
	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled from environment")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abc", 5); got != "abc" {
		t.Errorf("truncate() = %q", got)
	}
	got := truncate(strings.Repeat("x", 10), 4)
	if got != "xxxx..." {
		t.Errorf("truncate() = %q", got)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"29.5°C", 5, "29.5..."},
		{"29.5°C", 6, "29.5°..."},
		{"Rücklauf", 2, "R..."},
		{"Rücklauf", 3, "Rü..."},
		{"üü", 1, "..."},
	}

	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger = zap.New(core)
	t.Cleanup(Disable)

	LogRawBytes("Malformed message body", []byte("<a>\x01"))

	entries := logs.FilterMessage("Malformed message body").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["length"] != int64(4) || fields["hex"] != "3c613e01" || fields["ascii"] != "<a>." {
		t.Errorf("fields = %v", fields)
	}
}

func TestAsciiDump(t *testing.T) {
	if got := asciiDump([]byte("ok\x00\n")); got != "ok.." {
		t.Errorf("asciiDump() = %q", got)
	}
}

func TestDisable(t *testing.T) {
	if err := Initialize("debug"); err != nil {
		t.Fatal(err)
	}
	Disable()
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Disable() should silence every level")
	}
}
