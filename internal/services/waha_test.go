package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "phone number without country code",
			input:    "081246361829",
			expected: "6281246361829@c.us",
		},
		{
			name:     "phone number with country code",
			input:    "6281246361829",
			expected: "6281246361829@c.us",
		},
		{
			name:     "group id",
			input:    "120363407813232111@g.us",
			expected: "120363407813232111@g.us",
		},
		{
			name:     "phone number without country code, with suffix",
			input:    "081246361829@c.us",
			expected: "6281246361829@c.us",
		},
		{
			name:     "phone number with country code, with suffix",
			input:    "6281246361829@c.us",
			expected: "6281246361829@c.us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeChatID(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeChatID(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWahaSendMessage(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var text map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/sendText" {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&text))
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	waha := NewWahaService(srv.URL+"/", "secret").WithoutPauses()
	require.NoError(t, waha.SendMessage(context.Background(), "081246361829", "Installment 2 is due"))

	assert.Equal(t, []string{"/api/sendSeen", "/api/startTyping", "/api/stopTyping", "/api/sendText"}, paths)
	assert.Equal(t, "6281246361829@c.us", text["chatId"])
	assert.Equal(t, "Installment 2 is due", text["text"])
}

func TestWahaSendMessageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not started", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewWahaService(srv.URL, "").WithoutPauses().SendMessage(context.Background(), "6281", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send seen")
	assert.Contains(t, err.Error(), "422")
}
