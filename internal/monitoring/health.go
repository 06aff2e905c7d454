package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

type HealthChecker struct {
	mu           sync.RWMutex
	lastCycle    time.Time
	lastPrice    float64
	ledgerHalted bool
	errors       []string
}

type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LastCycle    time.Time `json:"last_cycle"`
	LastPrice    float64   `json:"last_price"`
	LedgerHalted bool      `json:"ledger_halted"`
	Uptime       string    `json:"uptime"`
	Errors       []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// CycleCompleted records a finished signal cycle and the latest price.
func (h *HealthChecker) CycleCompleted(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = time.Now()
	h.lastPrice = price
}

// LedgerHalted marks the ledger as halted; health reports unhealthy
// until the process is restarted by an operator.
func (h *HealthChecker) LedgerHalted(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledgerHalted = true
	h.errors = append(h.errors, reason)
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Resolve status and code before writing anything: a halted ledger
	// outranks staleness, and the header can only be sent once.
	status, code := "healthy", http.StatusOK
	if !h.lastCycle.IsZero() && time.Since(h.lastCycle) > 10*time.Minute {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if h.ledgerHalted {
		status, code = "unhealthy", http.StatusInternalServerError
	}

	health := HealthStatus{
		Status:       status,
		Timestamp:    time.Now(),
		LastCycle:    h.lastCycle,
		LastPrice:    h.lastPrice,
		LedgerHalted: h.ledgerHalted,
		Uptime:       time.Since(startTime).String(),
		Errors:       h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}
