package logging

import (
	"net"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := ParseLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op when no level is configured")
	}
}

func TestInitialize_IgnoresEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Initialize(\"\") should stay silent regardless of the environment")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	defer SetLogger(nil)

	t.Setenv(LogLevelEnvVar, "warn")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	core := GetLogger().Core()
	if !core.Enabled(zapcore.WarnLevel) || core.Enabled(zapcore.InfoLevel) {
		t.Error("logger should be enabled at warn and above only")
	}

	t.Setenv(LogLevelEnvVar, "")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when the variable is unset")
	}

	t.Setenv(LogLevelEnvVar, "loud")
	if err := InitializeFromEnv(); err == nil {
		t.Error("InitializeFromEnv() should reject an unknown level")
	}
}

func TestInitialize_UnknownLevel(t *testing.T) {
	if err := Initialize("loud"); err == nil {
		t.Error("Initialize(\"loud\") should fail")
	}
}

func TestLogDatagram(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	addr := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 9040}
	LogDatagram("received", addr, []byte{0x9A, 0x4A, 'h', 'i', 0x00})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "9a4a686900" {
		t.Errorf("hex = %v, want 9a4a686900", fields["hex"])
	}
	if fields["ascii"] != ".Jhi." {
		t.Errorf("ascii = %v, want .Jhi.", fields["ascii"])
	}
	if fields["remote_addr"] != "10.0.0.5:9040" {
		t.Errorf("remote_addr = %v", fields["remote_addr"])
	}
}

func TestLogDatagram_SkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogDatagram("sent", nil, []byte{1})
	if logs.Len() != 0 {
		t.Errorf("got %d entries at info level, want 0", logs.Len())
	}
}

func TestHexDump_Truncates(t *testing.T) {
	data := make([]byte, maxDumpBytes+10)
	got := hexDump(data)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("hexDump should mark truncation, got suffix %q", got[len(got)-5:])
	}
	if len(got) != maxDumpBytes*2+3 {
		t.Errorf("len(hexDump) = %d, want %d", len(got), maxDumpBytes*2+3)
	}
}
