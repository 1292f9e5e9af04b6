package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(contentType, body string) *RequestBodyParser {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(req)
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantJSON    bool
		want        map[string]string
	}{
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			body:        "title=Coffee&amount=3.50",
			want:        map[string]string{"title": "Coffee", "amount": "3.50", "category": ""},
		},
		{
			name:        "json with number",
			contentType: "application/json",
			body:        `{"title":"Coffee","amount":3.50}`,
			wantJSON:    true,
			want:        map[string]string{"title": "Coffee", "amount": "3.50", "category": ""},
		},
		{
			name:     "json sniffed without content type",
			body:     `  {"title":" Tea ","amount":"2"}`,
			wantJSON: true,
			want:     map[string]string{"title": "Tea", "amount": "2"},
		},
		{
			name: "empty body",
			want: map[string]string{"title": ""},
		},
		{
			name:        "control characters stripped",
			contentType: "application/json",
			body:        `{"title":"Cof\u0000fee\u0007","done":true}`,
			wantJSON:    true,
			want:        map[string]string{"title": "Coffee", "done": "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(tt.contentType, tt.body)
			require.NoError(t, p.Parse())
			assert.Equal(t, tt.wantJSON, p.IsJSON())
			for key, want := range tt.want {
				assert.Equal(t, want, p.Get(key), key)
			}
		})
	}
}

func TestRequestBodyParserErrors(t *testing.T) {
	p := newParser("application/json", `{"title":`)
	err := p.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON body")
	assert.Equal(t, err, p.Parse(), "parse result is cached")

	p = newParser("application/json", `[1,2]`)
	assert.Error(t, p.Parse())

	p = newParser("", strings.Repeat("a", maxBodyBytes+1))
	assert.ErrorIs(t, p.Parse(), errBodyTooLarge)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\tb\x00 "))
	assert.Equal(t, "line1\nline2", sanitizeInput("line1\nline2"))
	assert.Equal(t, "", sanitizeInput("\x01\x02"))
}
