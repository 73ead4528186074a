package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLogger(t *testing.T) {
	for _, production := range []bool{false, true} {
		InitLogger(production)
		if Logger == nil {
			t.Errorf("Logger should not be nil after InitLogger(%v)", production)
		}
	}
}

func TestInitLoggerWithLevel(t *testing.T) {
	InitLoggerWithLevel(false, slog.LevelDebug)

	if !Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer
	Logger = newLogger(&buf, false, slog.LevelDebug)

	tests := []struct {
		name  string
		log   func(string, ...any)
		level string
	}{
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"Debug", Debug, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log("scoring done", "key", "value")
			out := buf.String()
			if !strings.Contains(out, "scoring done") {
				t.Errorf("%s should log the message, got %q", tt.name, out)
			}
			if !strings.Contains(out, "key=value") {
				t.Errorf("%s should log the key-value pair, got %q", tt.name, out)
			}
			if !strings.Contains(out, "level="+tt.level) {
				t.Errorf("%s should log at %s level, got %q", tt.name, tt.level, out)
			}
		})
	}
}

func TestFieldLoggers(t *testing.T) {
	var buf bytes.Buffer
	Logger = newLogger(&buf, false, slog.LevelInfo)

	tests := []struct {
		name   string
		logger *slog.Logger
		want   string
	}{
		{"symbol", WithSymbol("AAPL"), "symbol=AAPL"},
		{"template", WithTemplate("TECH"), "template=TECH"},
		{"service", WithService("fmp"), "service=fmp"},
		{"error", WithError(errors.New("boom")), "error=boom"},
	}
	for _, tt := range tests {
		buf.Reset()
		tt.logger.Info("test message")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("%s logger output %q should contain %q", tt.name, buf.String(), tt.want)
		}
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	Logger = newLogger(&buf, false, slog.LevelInfo)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithContext(ctx).Info("handled")
	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("expected request id in %q", buf.String())
	}

	buf.Reset()
	WithContext(context.Background()).Info("handled")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request id in %q", buf.String())
	}
}

func TestLoggingWithNilLogger(t *testing.T) {
	Logger = nil
	Info("test message")

	Logger = nil
	_ = WithSymbol("AAPL")

	Logger = nil
	_ = WithTemplate("DEFAULT")

	Logger = nil
	_ = WithContext(context.Background())

	if Logger == nil {
		t.Error("Logger should be lazily initialized")
	}
}

func TestJSONFormat_Production(t *testing.T) {
	var buf bytes.Buffer
	Logger = newLogger(&buf, true, slog.LevelInfo)

	Info("test json message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, `"msg":"test json message"`) {
		t.Error("JSON handler should output JSON format")
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Error("JSON handler should include key-value pairs in JSON")
	}
}
