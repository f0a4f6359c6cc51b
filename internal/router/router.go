package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/handlers"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	catalogHandler *handlers.CatalogHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Chat rate limiter (20 turns/min per IP)
	chatLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(chatLimiter.Middleware)
				r.Post("/stream", chatHandler.Stream)
			})
			r.Get("/history", chatHandler.History)
		})

		// ──── Catalog Routes (public storefront reads) ────
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/articles", catalogHandler.ListArticles)
			r.Get("/faqs", catalogHandler.ListFAQs)
			r.Get("/contact", catalogHandler.GetContact)
		})
	})

	return r
}
