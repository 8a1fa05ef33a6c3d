package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func upgradeRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, zap.NewNop(), []string{
		"http://localhost:5173",
		"*.colprovidencia.cl",
	})

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"exact match", "http://localhost:5173", true},
		{"wildcard subdomain", "https://portal.colprovidencia.cl", true},
		{"unknown origin", "https://evil.example.com", false},
		{"missing origin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, h.upgrader.CheckOrigin(upgradeRequest(tt.origin)))
		})
	}
}

func TestCheckOrigin_NoConfiguredOrigins(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, zap.NewNop(), nil)

	assert.True(t, h.upgrader.CheckOrigin(upgradeRequest("https://anywhere.example.com")))
	assert.True(t, h.upgrader.CheckOrigin(upgradeRequest("")))
}

func TestMatchOrigin(t *testing.T) {
	assert.True(t, matchOrigin("http://localhost:5173", "http://localhost:5173"))
	assert.True(t, matchOrigin("*.colprovidencia.cl", "https://admin.colprovidencia.cl"))
	assert.False(t, matchOrigin("*.colprovidencia.cl", "https://colprovidencia.cl.evil.com"))
	assert.False(t, matchOrigin("http://localhost:5173", "http://localhost:3000"))
}
