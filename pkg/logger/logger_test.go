package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l := newLogger()

	assert.Equal(t, os.Stderr, l.Out)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	formatter, ok := l.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGetLogger(t *testing.T) {
	t.Run("falls back to global logger", func(t *testing.T) {
		entry := G(context.Background())
		assert.Equal(t, L.Logger, entry.Logger)
	})

	t.Run("returns attached logger", func(t *testing.T) {
		custom := logrus.NewEntry(logrus.New()).WithField("unit", "security/owasp")
		ctx := WithLogger(context.Background(), custom)

		entry := G(ctx)
		assert.Equal(t, "security/owasp", entry.Data["unit"])
	})

	t.Run("ignores foreign values under the key", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), loggerKey{}, "not-a-logger")
		entry := G(ctx)
		assert.Equal(t, L.Logger, entry.Logger)
	})
}

func TestLoggerChaining(t *testing.T) {
	base := logrus.NewEntry(logrus.New()).WithField("run", "1")
	ctx := WithLogger(context.Background(), base)
	ctx = WithLogger(ctx, G(ctx).WithField("rule", "license"))

	entry := G(ctx)
	assert.Equal(t, "1", entry.Data["run"])
	assert.Equal(t, "license", entry.Data["rule"])
}

func TestConfigure(t *testing.T) {
	origLevel := L.Logger.GetLevel()
	origFormatter := L.Logger.Formatter
	t.Cleanup(func() {
		L.Logger.SetLevel(origLevel)
		L.Logger.Formatter = origFormatter
		SetLogOutput(os.Stderr)
	})

	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, L.Logger.Formatter)

	var buf bytes.Buffer
	SetLogOutput(&buf)
	G(context.Background()).WithField("unit", "code/go").Debug("loaded skill unit")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["logLevel"])
	assert.Equal(t, "loaded skill unit", entry["message"])
	assert.Equal(t, "code/go", entry["unit"])
	assert.Contains(t, entry, "timestamp")

	require.NoError(t, Configure("info", "fmt"))
	assert.IsType(t, &logrus.TextFormatter{}, L.Logger.Formatter)
}

func TestConfigureInvalidLevel(t *testing.T) {
	err := Configure("loud", "fmt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "loud"`)
}
