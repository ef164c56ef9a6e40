package handler

import (
	"encoding/json"
	"net/http"

	"github.com/linkshelf/linkshelf/internal/build"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// health reports liveness and the running build.
func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{Status: "ok", Version: build.Version, Commit: build.Commit})
}
