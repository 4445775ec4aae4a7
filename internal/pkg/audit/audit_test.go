package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestLog_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Log(context.Background(), Event{
		Type:    AccountLockout,
		UserID:  "u-1",
		IP:      "10.0.0.1",
		Details: map[string]any{"attempts": 5},
	})

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 1)
	assert.Equal(t, "ACCOUNT_LOCKOUT", lines[0]["event"])
	assert.Equal(t, "u-1", lines[0]["userId"])
	assert.Equal(t, "10.0.0.1", lines[0]["ip"])
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.EqualValues(t, 5, lines[0]["details"].(map[string]any)["attempts"])
	assert.NotContains(t, lines[0], "userAgent")
}

func TestLog_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(context.Background(), Event{Type: FailedLoginAttempt, UserID: "u"})
		}()
	}
	wg.Wait()

	assert.Len(t, decodeLines(t, buf.Bytes()), 50)
}

func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "security.log")

	l, err := Open(path)
	require.NoError(t, err)
	l.Log(context.Background(), Event{Type: LoginSuccess, UserID: "a"})
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	l.Log(context.Background(), Event{Type: Logout, UserID: "a"})
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Log(context.Background(), Event{Type: LoginSuccess})
		_ = l.Close()
	})
}
