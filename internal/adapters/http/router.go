package httpadapter

import (
	"encoding/json"
	"net/http"
)

// Router serves the process status surface: liveness, readiness and metrics.
// The conversational flow itself never goes over HTTP.
type Router struct {
	ready          func() bool
	metricsHandler http.Handler
}

func NewRouter(ready func() bool, metricsHandler http.Handler) *Router {
	return &Router{
		ready:          ready,
		metricsHandler: metricsHandler,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/readyz", rt.readyz)
	if rt.metricsHandler != nil {
		mux.Handle("/metrics", rt.metricsHandler)
	}
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	if rt.ready != nil && !rt.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "channel disconnected"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
