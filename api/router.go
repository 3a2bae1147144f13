package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/logging"
	"github.com/duongdatdev/miniisland-2.0-sub000/protocol"
	game "github.com/duongdatdev/miniisland-2.0-sub000/src"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// Source is the simulation state the API reads. Every method must be safe to
// call from request goroutines.
type Source interface {
	Snapshot() *game.Snapshot
	Leaderboard() []protocol.LeaderboardEntry
	Grid() *tilemap.Grid
}

// NewRouter builds the /api router with middlewares and routes.
func NewRouter(src Source, allowOrigins []string, log *zap.Logger) chi.Router {
	log = logging.OrNop(log).Named("api")
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	sh := NewStateHandler(src, log)
	r.Route("/v1", func(sub chi.Router) {
		sh.Routes(sub)
	})
	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
