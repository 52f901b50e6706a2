// Package serve exposes the demo's Prometheus metrics over HTTP while a run is in progress.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/health"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/stellar/anchor-demo/internal/apptracker"
	"github.com/stellar/anchor-demo/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

type ErrorResponse struct {
	Status int    `json:"-"`
	Error  string `json:"error"`
}

func (e ErrorResponse) Render(w http.ResponseWriter) {
	httpjson.RenderStatus(w, e.Status, e, httpjson.JSON)
}

type ErrorHandler struct {
	Error ErrorResponse
}

func (h ErrorHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.Error.Render(w)
}

var (
	NotFound = ErrorResponse{
		Status: http.StatusNotFound,
		Error:  "The resource at the url requested was not found.",
	}
	MethodNotAllowed = ErrorResponse{
		Status: http.StatusMethodNotAllowed,
		Error:  "The method is not allowed for resource at the url requested.",
	}
	InternalServerError = ErrorResponse{
		Status: http.StatusInternalServerError,
		Error:  "An error occurred while processing this request.",
	}
)

// RecoverHandler turns handler panics into a 500 and reports them to the app tracker.
func RecoverHandler(appTracker apptracker.AppTracker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("panic: %v", r)
					}
					log.Ctx(req.Context()).WithStack(err).Error(err)
					appTracker.CaptureException(err)
					InternalServerError.Render(rw)
				}
			}()
			next.ServeHTTP(rw, req)
		})
	}
}

// NewHandler routes /health and /metrics.
func NewHandler(metricsService metrics.MetricsService, appTracker apptracker.AppTracker) http.Handler {
	mux := supporthttp.NewAPIMux(log.DefaultLogger)
	mux.NotFound(ErrorHandler{Error: NotFound}.ServeHTTP)
	mux.MethodNotAllowed(ErrorHandler{Error: MethodNotAllowed}.ServeHTTP)
	mux.Use(RecoverHandler(appTracker))

	mux.Get("/health", health.PassHandler{}.ServeHTTP)
	mux.With(chimiddleware.NoCache).Get("/metrics", promhttp.HandlerFor(metricsService.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP)

	return mux
}

// Serve listens on port until ctx is done. It returns nil after a clean shutdown.
// supporthttp.Run is not used because it exits the process on SIGINT, and the
// metrics server has to stop with the run that owns it.
func Serve(ctx context.Context, port int, handler http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Ctx(ctx).Infof("serving metrics on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		return nil
	}
}
