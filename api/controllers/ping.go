package controllers

import (
	"net/http"

	"github.com/vendora-hq/vendora-backend/api/responses"
)

// PublicPing answers load-balancer liveness probes without touching
// any dependency.
func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}
