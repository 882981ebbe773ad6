package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	assert.NotNil(t, logger)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)

	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGlobalVariables(t *testing.T) {
	ctx := context.Background()
	logger1 := G(ctx)
	logger2 := G(ctx)

	assert.Equal(t, logger1.Logger, logger2.Logger)
	assert.NotNil(t, L)
	assert.IsType(t, &logrus.Entry{}, L)
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()

	customLogger := logrus.NewEntry(logrus.New())
	ctxWithLogger := WithLogger(ctx, customLogger)

	retrieved := GetLogger(ctxWithLogger)
	assert.Equal(t, customLogger.Logger, retrieved.Logger)
}

func TestGetLoggerFallback(t *testing.T) {
	ctx := context.Background()

	retrieved := GetLogger(ctx)
	assert.Equal(t, L.Logger, retrieved.Logger)
	assert.Equal(t, ctx, retrieved.Context)
}

func TestSetLogLevel(t *testing.T) {
	original := L.Logger.GetLevel()
	defer L.Logger.SetLevel(original)

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	assert.Error(t, SetLogLevel("not-a-level"))
}

func TestSetLogFormatJSON(t *testing.T) {
	defer setLoggerFormat(L.Logger, "fmt")

	var buf bytes.Buffer
	SetLogFormat("json")
	SetLogOutput(&buf)
	defer SetLogOutput(logrus.New().Out)

	L.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "logLevel")
}
