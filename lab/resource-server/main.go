// Command resource-server is a minimal downstream service that accepts the
// access tokens the authentication server mints. It exists to show the
// integration surface: share JWT_SECRET, wrap protected routes in
// RequireAuth, and read the caller's user id from the request context.
//
// Run it next to a local authentication server with the same secret:
//
//	go run ./lab/resource-server
//	curl -H "Authorization: Bearer $ACCESS_TOKEN" localhost:9000/api/profile
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"signet/internal/auth/token"
	"signet/internal/platform/logger"
	"signet/internal/platform/middleware"
)

func main() {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET must match the authentication server's secret")
	}
	addr := os.Getenv("RESOURCE_ADDR")
	if addr == "" {
		addr = ":9000"
	}

	logg := logger.New("info")

	// The TTLs only matter when minting; verification trusts the token's own
	// expiry claim.
	verifier, err := token.NewService(secret, 15*time.Minute, 24*time.Hour)
	if err != nil {
		log.Fatalf("failed to build token verifier: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier, logg))
		r.Get("/api/profile", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"message": "hello from the resource server",
				"user_id": middleware.GetUserID(req.Context()),
			})
		})
	})

	logg.Info("resource server listening", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
