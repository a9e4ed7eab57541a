package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avinasha18/interview-proctor/internal/handlers"
	"github.com/avinasha18/interview-proctor/internal/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health     *handlers.HealthHandler
	Interviews *handlers.InterviewHandler
	Events     *handlers.EventHandler
	Reports    *handlers.ReportHandler
	Recordings *handlers.RecordingHandler
	WS         *handlers.WSHandler
}

type Options struct {
	AllowedOrigins []string
	// VideoDir is served under /videos when recordings are stored locally.
	VideoDir string
}

func New(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(metrics.Middleware)

	HealthRoutes(r, h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	InterviewRoutes(r, h.Interviews)
	EventRoutes(r, h.Events)
	ReportRoutes(r, h.Reports)
	RecordingRoutes(r, h.Recordings)
	r.Get("/ws/interviews/{id}", h.WS.InterviewWS)

	if opts.VideoDir != "" {
		r.Handle("/videos/*", http.StripPrefix("/videos/", http.FileServer(http.Dir(opts.VideoDir))))
	}
	return r
}

func HealthRoutes(r chi.Router, health *handlers.HealthHandler) {
	r.Get("/healthz", health.HealthzHandler)
	r.Get("/readyz", health.ReadyzHandler)
}

func InterviewRoutes(r chi.Router, interviews *handlers.InterviewHandler) {
	r.Route("/api/interviews", func(r chi.Router) {
		r.Get("/", interviews.ListHandler)
		r.Post("/schedule", interviews.ScheduleHandler)
		r.Post("/join/{code}", interviews.JoinHandler)
		r.Post("/authenticate-interviewer", interviews.AuthenticateInterviewerHandler)
		r.Get("/interviewer/{email}", interviews.ListByInterviewerHandler)
		r.Get("/candidate/{email}", interviews.ListByCandidateHandler)

		r.Get("/{id}", interviews.GetHandler)
		r.Get("/{id}/events", interviews.EventsHandler)
		r.Post("/{id}/token", interviews.TokenHandler)
		r.Post("/{id}/end", interviews.EndHandler)
		r.Post("/{id}/disconnect", interviews.DisconnectHandler)
		r.Post("/{id}/video-stream", interviews.VideoStreamHandler)
	})
}

func EventRoutes(r chi.Router, events *handlers.EventHandler) {
	r.Post("/api/events/{interviewId}", events.IngestHandler)
}

func ReportRoutes(r chi.Router, reports *handlers.ReportHandler) {
	r.Route("/api/reports/{id}", func(r chi.Router) {
		r.Get("/summary", reports.SummaryHandler)
		r.Get("/csv", reports.CSVHandler)
		r.Get("/txt", reports.TextHandler)
	})
}

func RecordingRoutes(r chi.Router, recordings *handlers.RecordingHandler) {
	r.Route("/api/recording", func(r chi.Router) {
		r.Get("/debug/active", recordings.ActiveHandler)
		r.Post("/cleanup/{id}", recordings.CleanupHandler)

		r.Post("/{id}/start", recordings.StartHandler)
		r.Post("/{id}/chunk", recordings.ChunkHandler)
		r.Post("/{id}/stop", recordings.StopHandler)
		r.Get("/{id}/status", recordings.StatusHandler)
	})
}
