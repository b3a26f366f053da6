package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"adoption-manager/internal/adapters/auth/usermanager"
	rediscache "adoption-manager/internal/adapters/cache/redis"
	"adoption-manager/internal/domain/catalog"
	"adoption-manager/internal/platform/logger"
	"adoption-manager/internal/ports/auth"
	"adoption-manager/internal/router"
)

func main() {
	// .env es opcional; en despliegue las vars vienen del entorno.
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	var verifier auth.AuthVerifier
	if baseURL := os.Getenv("USERMANAGER_URL"); baseURL != "" {
		client, err := usermanager.NewClient(usermanager.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("USERMANAGER_API_KEY"),
		})
		if err != nil {
			log.Error("usermanager client init failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = usermanager.NewVerifier(client)
	} else {
		log.Warn("USERMANAGER_URL not set, running in dev mode (X-Debug-* headers)", nil)
	}

	var cache catalog.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c, err := rediscache.New(redisAddr)
		if err != nil {
			// Sin cache se lee directo del repo; no es fatal.
			log.Warn("redis unavailable, catalog cache disabled", map[string]any{"error": err.Error()})
		} else {
			cache = c
		}
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Cache:        cache,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
