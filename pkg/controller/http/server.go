package http

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
	"github.com/secmon-lab/gathsalt/pkg/utils/safe"
)

type Server struct {
	router   *chi.Mux
	uc       *usecase.UseCases
	authUC   AuthUseCase
	events   *EventHub
	staticFS fs.FS
}

type Options func(*Server)

// WithEvents serves live store updates from hub at /api/events
func WithEvents(hub *EventHub) Options {
	return func(s *Server) {
		s.events = hub
	}
}

// WithStaticFS serves the dashboard UI shell from fsys for every non-API path
func WithStaticFS(fsys fs.FS) Options {
	return func(s *Server) {
		s.staticFS = fsys
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		authUC: uc.Auth,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authLoginHandler(s.authUC))
		r.Post("/logout", authLogoutHandler())
		r.Get("/me", authMeHandler(s.authUC))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(s.authUC))

		r.Get("/capabilities", capabilitiesHandler(uc))

		r.Route("/insights", func(r chi.Router) {
			r.Get("/", listInsightsHandler(uc))
			r.Post("/", createInsightHandler(uc))
			r.Post("/media", createMediaInsightHandler(uc))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", getInsightHandler(uc))
				r.Delete("/", deleteInsightHandler(uc))
				r.Post("/deep-dive", deepDiveHandler(uc))
				r.Get("/chat", transcriptHandler(uc))
				r.Post("/chat", chatHandler(uc))
				r.Post("/speech", insightSpeechHandler(uc))
				r.Post("/export/notion", notionExportHandler(uc))
			})
		})

		r.Post("/speech", speechHandler(uc))

		if s.events != nil {
			r.Get("/events", s.events.ServeHTTP)
		}
	})

	if s.staticFS != nil {
		r.Get("/*", spaHandler(s.staticFS))
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// spaHandler serves static files and falls back to index.html for client-side routes
func spaHandler(staticFS fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(staticFS))

	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(r.URL.Path, "/")
		if urlPath == "" {
			urlPath = "index.html"
		}

		file, err := staticFS.Open(urlPath)
		if err == nil {
			safe.Close(r.Context(), file)
			fileServer.ServeHTTP(w, r)
			return
		}

		index, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		safe.Write(r.Context(), w, index)
	}
}
