package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"textbelt success", "{\n  \"success\": true,\n  \"textId\": \"12345\",\n  \"quotaRemaining\": 40\n}", true},
		{"inline success", `{"success": true}`, true},
		{"marker in first chunk of longer reply", `{"success": true, "message": "` + strings.Repeat("x", 500) + `"}`, true},
		{"explicit failure", `{"success": false, "error": "Out of quota"}`, false},
		{"compact json is not the marker", `{"success":true}`, false},
		{"empty reply", "", false},
		{"truncated reply", `{"succ`, false},
		{"curl diagnostic", "curl: (6) Could not resolve host: textbelt.com\n", false},
		{"html error page", "<html><body>502 Bad Gateway</body></html>", false},
		{"marker value differs", `{"success": truex}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccess([]byte(tt.reply)))
		})
	}
}

func TestRequest_Message(t *testing.T) {
	req := Request{Number: "5551234567", Filename: "out.2fz", Code: "0042"}
	assert.Equal(t, "2Factor Auth Code for out.2fz: 0042", req.Message())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "ok", snippet([]byte("  ok\n")))
	long := strings.Repeat("a", 200)
	got := snippet([]byte(long))
	assert.Len(t, got, 123)
	assert.True(t, strings.HasSuffix(got, "..."))
}
