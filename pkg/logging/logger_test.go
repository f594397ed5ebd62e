package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerWritesJSONEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetOutput(&buf)

	l.Info("connected", String("addr", "wss://example.com"), Int("attempt", 1))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "connected", entry["message"])
	assert.Equal(t, "wss://example.com", entry["addr"])
	assert.Equal(t, float64(1), entry["attempt"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger()
	l.SetOutput(&buf)
	l.SetLevel(WARN)

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestWithFieldsAttachesToEveryEntry(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger()
	base.SetOutput(&buf)

	child := base.WithFields(String("component", "socket"))
	child.Info("reconnected", Int("attempt", 2))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "socket", entry["component"])
	assert.Equal(t, float64(2), entry["attempt"])

	// The parent is unaffected by the derived logger's fields.
	buf.Reset()
	base.Info("plain")
	entry = decodeLine(t, &buf)
	assert.NotContains(t, entry, "component")
}

func TestWithFieldsConcurrentWithLogging(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger()
	base.SetOutput(&buf)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			base.Info("tick")
		}
	}()
	children := make([]Logger, 0, 100)
	for i := 0; i < 100; i++ {
		children = append(children, base.WithFields(Int("i", i)))
	}
	<-done

	require.Len(t, children, 100)
}

func TestNopDiscardsEverything(t *testing.T) {
	l := Nop()
	l.Error("ignored", Error(assert.AnError))
}
