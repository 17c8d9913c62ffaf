package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func requestWithHeaders(remoteAddr string, headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/client/verify", nil)
	c.Request.RemoteAddr = remoteAddr
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "falls back to remote addr",
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "cf-connecting-ip wins over everything",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"CF-Connecting-IP": "198.51.100.2",
				"X-Real-IP":        "198.51.100.3",
				"X-Forwarded-For":  "198.51.100.4, 10.0.0.1",
			},
			want: "198.51.100.2",
		},
		{
			name:       "x-real-ip wins over forwarded chain",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"X-Real-IP":       "198.51.100.3",
				"X-Forwarded-For": "198.51.100.4, 10.0.0.1",
			},
			want: "198.51.100.3",
		},
		{
			name:       "first hop of forwarded chain",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"X-Forwarded-For": "198.51.100.4, 10.0.0.1, 10.0.0.2",
			},
			want: "198.51.100.4",
		},
		{
			name:       "ipv4-mapped ipv6 prefix stripped",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"X-Real-IP": "::ffff:192.0.2.9",
			},
			want: "192.0.2.9",
		},
		{
			name:       "whitespace in forwarded chain trimmed",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"X-Forwarded-For": "  198.51.100.4 , 10.0.0.1",
			},
			want: "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := requestWithHeaders(tt.remoteAddr, tt.headers)
			assert.Equal(t, tt.want, ClientIP(c))
		})
	}
}
