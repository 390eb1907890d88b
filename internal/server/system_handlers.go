// Package server provides the HTTP server and routing for chainlens.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/chainlens/internal/clientdata"
	"github.com/aristath/chainlens/internal/database"
)

// SystemHandlers serves process and cache monitoring endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	cacheDB     *database.DB
	cacheRepo   *clientdata.Repository
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(log zerolog.Logger, dataDir string, cacheDB *database.DB, cacheRepo *clientdata.Repository) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		cacheDB:     cacheDB,
		cacheRepo:   cacheRepo,
	}
}

// HandleSystemStatus reports process health: uptime, CPU, memory.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	status := map[string]interface{}{
		"status":      "running",
		"uptime":      time.Since(h.startupTime).Round(time.Second).String(),
		"cpu_percent": cpuPercent,
		"ram_percent": memPercent,
		"data_dir":    h.dataDir,
	}

	if h.cacheDB != nil {
		if stats, err := h.cacheDB.GetStats(); err == nil {
			status["cache_db"] = stats
		}
	}

	h.writeJSON(w, http.StatusOK, status)
}

// HandleCacheStats reports per-table entry counts of the client cache.
func (h *SystemHandlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cacheRepo == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cache disabled"})
		return
	}

	counts, err := h.cacheRepo.CountEntries()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count cache entries")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables": counts,
		"total":  total,
	})
}

// getSystemStats samples CPU and RAM usage. The CPU sample window is
// kept short so the status endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
