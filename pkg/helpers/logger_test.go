package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProductionIsJSONWithAppFields(t *testing.T) {
	logger := NewLogger("flasky", "production")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	LogError(logger, "boom", errors.New("disk full"), logrus.Fields{"user_id": 7})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "boom", line["msg"])
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "disk full", line["error"])
	assert.Equal(t, "flasky", line["app"])
	assert.Equal(t, "production", line["env"])
	assert.EqualValues(t, 7, line["user_id"])
}

func TestNewLogger_DevelopmentLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("flasky", "development").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("flasky", "staging").GetLevel())
}
