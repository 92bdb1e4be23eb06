package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/midiplexer/internal/process"
)

// SystemMetrics is the /system response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	MQTT          *MQTTMetrics   `json:"mqtt,omitempty"`
	Bridge        *process.Stats `json:"bridge,omitempty"`
	Devices       DeviceMetrics  `json:"devices"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// DeviceMetrics counts devices known to the plexer.
type DeviceMetrics struct {
	Controllers        int `json:"controllers"`
	ControllersOffline int `json:"controllers_offline"`
	Clients            int `json:"clients"`
	ClientsOffline     int `json:"clients_offline"`
}

// handleSystem returns process-level metrics. Prometheus metrics are served
// separately on /metrics.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{ConnectedClients: s.hub.ClientCount()},
	}

	if s.mqtt != nil {
		metrics.MQTT = &MQTTMetrics{Connected: s.mqtt.IsConnected()}
	}
	if s.bridge != nil {
		stats := s.bridge.Stats()
		metrics.Bridge = &stats
	}

	ctx := r.Context()
	if controllers, err := s.plexer.Controllers(ctx); err == nil {
		metrics.Devices.Controllers = len(controllers)
		for _, c := range controllers {
			if !c.Online {
				metrics.Devices.ControllersOffline++
			}
		}
	}
	if clients, err := s.plexer.Clients(ctx); err == nil {
		metrics.Devices.Clients = len(clients)
		for _, c := range clients {
			if !c.Online {
				metrics.Devices.ClientsOffline++
			}
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
