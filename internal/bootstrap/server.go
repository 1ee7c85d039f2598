package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/appleboy/graceful"

	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/store"
)

const credentialCleanupInterval = time.Hour

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addCredentialCleanupJob periodically deletes expired access tokens and
// OTPs. Expired rows are also collected on read; this sweep covers rows
// nobody ever presents again.
func addCredentialCleanupJob(m *graceful.Manager, db *store.Store) {
	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(credentialCleanupInterval)
		defer ticker.Stop()

		cleanup := func() {
			if deleted, err := db.DeleteExpiredAccessTokens(ctx); err != nil {
				log.Printf("Failed to cleanup expired access tokens: %v", err)
			} else if deleted > 0 {
				log.Printf("Cleaned up %d expired access tokens", deleted)
			}
			if deleted, err := db.DeleteExpiredOTPs(ctx); err != nil {
				log.Printf("Failed to cleanup expired OTPs: %v", err)
			} else if deleted > 0 {
				log.Printf("Cleaned up %d expired OTPs", deleted)
			}
		}

		// Run cleanup immediately on startup
		cleanup()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return nil
			}
		}
	})
}
