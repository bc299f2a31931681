package app

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthStatus struct {
	Status           string `json:"status"`
	RegistryLoadedAt string `json:"registry_loaded_at"`
	Variables        int    `json:"variables"`
	Equations        int    `json:"equations"`
}

// healthHandler reports liveness and which registry snapshot is serving.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

	snap := a.holder.Current()
	w.Header().Set("Content-Type", "application/json")
	if snap == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthStatus{Status: "no registry"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthStatus{
		Status:           "OK",
		RegistryLoadedAt: snap.LoadedAt().UTC().Format(time.RFC3339),
		Variables:        len(snap.Variables()),
		Equations:        len(snap.Equations()),
	})
}
