package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves operational status endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	feed      FeedStatus
	store     StoreStats
	startedAt time.Time
}

// NewSystemHandlers creates system status handlers. feed and store are
// optional; missing pieces are reported as absent rather than failing.
func NewSystemHandlers(log zerolog.Logger, dataDir string, feed FeedStatus, store StoreStats) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		feed:      feed,
		store:     store,
		startedAt: time.Now(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"timestamp":      time.Now().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"data_dir":       h.dataDir,
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status["cpu_percent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status["memory"] = map[string]interface{}{
			"total":        memStat.Total,
			"used":         memStat.Used,
			"used_percent": memStat.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	if h.feed != nil {
		status["feed"] = map[string]interface{}{
			"connected":   h.feed.IsConnected(),
			"cache_stale": h.feed.IsCacheStale(),
		}
	}

	if h.store != nil {
		store := map[string]interface{}{}
		if symbols, err := h.store.CountSymbols(); err == nil {
			store["symbols"] = symbols
		}
		if latest, err := h.store.LatestDate(); err == nil && !latest.IsZero() {
			store["latest_date"] = latest.Format("2006-01-02")
		}
		status["store"] = store
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}
