package queue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "resource:42", Topic(42))
}

func TestFormatAuditLine(t *testing.T) {
	body := []byte(`{"type":"lounger-status-changed","lounger_id":3,"beach_id":1,"reservation_id":9,"available":false,"until":"2026-07-01T12:00:00Z","number":"A3","occurred_at":"2026-07-01T09:00:00Z"}`)
	line, err := FormatAuditLine(body)
	require.NoError(t, err)
	assert.Equal(t, "[2026-07-01T09:00:00Z] Lounger occupied | lounger_id=3 | beach_id=1 | reservation_id=9 | number=\"A3\" | until=2026-07-01T12:00:00Z\n", line)

	line, err = FormatAuditLine([]byte(`{"lounger_id":3,"available":true}`))
	require.NoError(t, err)
	assert.Contains(t, line, "Lounger available")
	assert.NotContains(t, line, "until=")

	_, err = FormatAuditLine([]byte(`not json`))
	assert.Error(t, err)
}

func TestAuditConsumerHandleAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lounger-events.log")
	c := &AuditConsumer{LogPath: path, Logger: zap.NewNop()}

	require.NoError(t, c.handle([]byte(`{"lounger_id":1,"available":true}`)))
	require.NoError(t, c.handle([]byte(`{"lounger_id":2,"available":false}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lounger_id=1")
	assert.Contains(t, string(data), "lounger_id=2")
}
