package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/stelliform/sketchsphere/internal/infrastructure/json"
)

var (
	startTime       = time.Now()
	healthy   int32 = 1 // 1: healthy, 0 = unhealthy
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// SetHealthy flips the reported status, for draining ahead of a shutdown.
func SetHealthy(ok bool) {
	var v int32
	if ok {
		v = 1
	}
	atomic.StoreInt32(&healthy, v)
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
	if atomic.LoadInt32(&healthy) == 0 {
		status = http.StatusServiceUnavailable
		body.Status = "unhealthy"
	}
	json.Write(w, status, body)
}
