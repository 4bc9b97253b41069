package logsvc

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	std := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewRollbarLogger(std, &core.Config{Env: "TEST", Build: "test"})
	logger.Enable(false)

	usr := user.User{ID: "u-1", Name: "Ana", Email: "ana@test.test"}
	logger.Error("saving session", errors.New("boom"), map[string]interface{}{"student_id": "s-1"}, usr, usr)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "saving session", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "s-1", entry["student_id"])
	assert.Equal(t, "u-1", entry["user_id"])
}
