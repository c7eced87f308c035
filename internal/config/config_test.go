package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := FromViper(newViper())

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http", cfg.GatewayDriver)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.WorkerInterval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("GATEWAY_DRIVER", "Midtrans")
	t.Setenv("EXTERNAL_PAYMENT_API_URL", "http://gateway.local/")
	t.Setenv("GATEWAY_TIMEOUT", "2s")
	t.Setenv("MIDTRANS_IS_PRODUCTION", "true")

	cfg := FromViper(newViper())

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "midtrans", cfg.GatewayDriver)
	assert.Equal(t, "http://gateway.local", cfg.GatewayURL)
	assert.Equal(t, 2*time.Second, cfg.GatewayTimeout)
	assert.True(t, cfg.MidtransProd)
}
