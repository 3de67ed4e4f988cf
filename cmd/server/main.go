// Command server runs the authentication service. All wiring lives in the
// app package; main only loads configuration and reports fatal errors.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"signet/internal/app"
	"signet/internal/platform/config"
)

func main() {
	// Local development reads overrides from .env; deployed environments
	// rely on the real process environment.
	_ = godotenv.Load()

	application, err := app.New(config.FromEnv())
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
