package monitoring

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func serveHealth(t *testing.T, h *HealthChecker) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	var status HealthStatus
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	return rec.Code, status
}

// TestHealth_Healthy: a fresh cycle reports healthy with a 200.
func TestHealth_Healthy(t *testing.T) {
	h := NewHealthChecker()
	h.CycleCompleted(45000)

	code, status := serveHealth(t, h)
	assert.Equal(t, 200, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 45000.0, status.LastPrice)
}

// TestHealth_StaleCycle: no completed cycle for over ten minutes
// degrades the status with a 503.
func TestHealth_StaleCycle(t *testing.T) {
	h := NewHealthChecker()
	h.mu.Lock()
	h.lastCycle = time.Now().Add(-15 * time.Minute)
	h.mu.Unlock()

	code, status := serveHealth(t, h)
	assert.Equal(t, 503, code)
	assert.Equal(t, "degraded", status.Status)
}

// TestHealth_HaltedOutranksStale: a halted ledger reports unhealthy
// with a single 500 status line even when the cycle is also stale.
func TestHealth_HaltedOutranksStale(t *testing.T) {
	h := NewHealthChecker()
	h.mu.Lock()
	h.lastCycle = time.Now().Add(-15 * time.Minute)
	h.mu.Unlock()
	h.LedgerHalted("cash went negative")

	code, status := serveHealth(t, h)
	assert.Equal(t, 500, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.True(t, status.LedgerHalted)
	assert.Contains(t, status.Errors, "cash went negative")
}
