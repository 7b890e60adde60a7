package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type fileConfig struct {
	level, output, file string
}

func (f fileConfig) GetLevel() string  { return f.level }
func (f fileConfig) GetOutput() string { return f.output }
func (f fileConfig) GetFile() string   { return f.file }

func TestParseLogLevel(t *testing.T) {
	tt := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"WARNING", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"", INFO},
		{"verbose", INFO},
	}
	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, ParseLogLevel(tc.in))
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	// given
	var buf bytes.Buffer
	l, err := NewWithWriter(WARN, zapcore.AddSync(&buf))
	require.NoError(t, err)

	// when
	l.Info("dropped %d", 1)
	l.With(zap.String("tx_id", "0xabc")).Warn("ledger drift %d", 2)
	l.Sync()

	// then
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "ledger drift 2", entry["message"])
	require.Equal(t, "0xabc", entry["tx_id"])
}

func TestSetupFileOutput(t *testing.T) {
	// given
	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })
	path := filepath.Join(t.TempDir(), "app.log")

	// when
	require.NoError(t, Setup(fileConfig{level: "info", output: "file", file: path}))
	Info("claim recorded for tx %s", "0x01")
	Sync()

	// then
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "claim recorded for tx 0x01")
}

func TestSetupFileOutputWithoutPath(t *testing.T) {
	err := Setup(fileConfig{level: "info", output: "file"})
	require.Error(t, err)
}
