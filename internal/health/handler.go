package health

import (
	"context"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"papertrade/internal/httputil"
)

const pingTimeout = time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	store     Pinger
	startedAt time.Time
	driver    string
	quotes    string
}

func NewHandler(store Pinger, startedAt time.Time, driver, quoteProvider string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{store: store, startedAt: start, driver: driver, quotes: quoteProvider}
}

type response struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	UptimeSec int64        `json:"uptime_sec"`
	Uptime    string       `json:"uptime"`
	Store     storeStats   `json:"store"`
	Quotes    string       `json:"quote_provider"`
	Runtime   runtimeStats `json:"runtime"`
	Build     buildStats   `json:"build"`
}

type storeStats struct {
	Driver    string `json:"driver"`
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
}

type runtimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	GoMaxProcs int    `json:"gomaxprocs"`
	GoOS       string `json:"go_os"`
	GoArch     string `json:"go_arch"`
}

type buildStats struct {
	MainPath string `json:"main_path"`
	Version  string `json:"version"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func (h *Handler) ping(ctx context.Context) storeStats {
	out := storeStats{Driver: h.driver}
	if h.store == nil {
		out.Error = "store is not configured"
		return out
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := h.store.Ping(ctx)
	out.PingMs = time.Since(start).Milliseconds()
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Reachable = true
	return out
}

// Get reports store reachability and runtime details. It answers 503 when
// the store cannot be pinged.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	st := h.ping(r.Context())

	build := buildStats{}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		build.MainPath = strings.TrimSpace(info.Main.Path)
		build.Version = strings.TrimSpace(info.Main.Version)
	}

	status, code := "ok", http.StatusOK
	if !st.Reachable {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, response{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		Store:     st,
		Quotes:    h.quotes,
		Runtime: runtimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			GoMaxProcs: runtime.GOMAXPROCS(0),
			GoOS:       runtime.GOOS,
			GoArch:     runtime.GOARCH,
		},
		Build: build,
	})
}
