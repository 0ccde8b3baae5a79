// Package httpd serves the synchronized web tree to install clients. The
// network-boot side of provisioning (DHCP, TFTP) stays external; this is
// only the HTTP surface the rendered install scripts and mirrored
// repositories are fetched from.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cochaviz/kiln/internal/config"
	"github.com/cochaviz/kiln/internal/logging"
)

// Server exposes the web root under /cblr/ and the boot images under
// /images/.
type Server struct {
	Settings *config.Settings
	Logger   *slog.Logger
}

// Router builds the request routing for the server.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(s.logRequests)

	webFS := http.FileServer(http.Dir(s.Settings.WebDir))
	router.Handle("/cblr/*", http.StripPrefix("/cblr/", webFS))

	imageFS := http.FileServer(http.Dir(s.Settings.BootDir + "/images"))
	router.Handle("/images/*", http.StripPrefix("/images/", imageFS))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return router
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logging.Ensure(s.Logger).Info("serving install tree", "addr", addr, "web_dir", s.Settings.WebDir)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Ensure(s.Logger).Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}
