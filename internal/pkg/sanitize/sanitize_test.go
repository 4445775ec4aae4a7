package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jane Doe", "Jane Doe"},
		{"  padded  ", "padded"},
		{"<script>alert(1)</script>Jane", "Jane"},
		{"<b>bold</b>", "bold"},
		{"O'Brien & Sons", "O'Brien & Sons"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;", ""},
		{`<img src=x onerror="alert(1)">`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestValue_RemovesOperatorKeys(t *testing.T) {
	var body any
	require.NoError(t, json.Unmarshal([]byte(`{
		"accountNumber": {"$gt": ""},
		"$where": "1==1",
		"fullName": "<i>Jane</i>",
		"tags": ["<b>a</b>", {"$ne": 1, "ok": "x"}],
		"amount": 10.5
	}`), &body))

	out, removed := Value(body)

	assert.ElementsMatch(t, []string{"$gt", "$where", "$ne"}, removed)
	m := out.(map[string]any)
	assert.Equal(t, map[string]any{}, m["accountNumber"])
	assert.NotContains(t, m, "$where")
	assert.Equal(t, "Jane", m["fullName"])
	assert.Equal(t, []any{"a", map[string]any{"ok": "x"}}, m["tags"])
	assert.Equal(t, 10.5, m["amount"])
}
