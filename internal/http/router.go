package http

import (
	"net/http"

	"chamba/internal/auth"
	"chamba/internal/config"
	"chamba/internal/http/handler"
	mw "chamba/internal/http/middleware"
	"chamba/internal/listing"
	"chamba/internal/payconfig"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: db}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	settings := &payconfig.Store{DB: db}
	profiles := &auth.ProfileStore{DB: db}

	listingSvc := &listing.Service{DB: db, Profiles: profiles}
	paymentSvc := &listing.PaymentService{DB: db, Pricing: settings}
	renewalSvc := &listing.RenewalService{DB: db, Pricing: settings}
	sweeper := &listing.Sweeper{DB: db}

	lh := &handler.ListingHandler{Svc: listingSvc}
	ph := &handler.PaymentHandler{Svc: paymentSvc, Settings: settings}
	rh := &handler.RenewalHandler{Svc: renewalSvc}
	sh := &handler.SweepHandler{Sweeper: sweeper}

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", lh.List)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtSvc))
			r.With(auth.RequireRole(auth.RoleEmployer)).Get("/mine", lh.Mine)
			r.With(auth.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/", lh.Create)
			r.With(auth.RequireRole(auth.RoleEmployer)).Put("/{id}", lh.Update)
			r.With(auth.RequireRole(auth.RoleEmployer)).Delete("/{id}", lh.Delete)
			r.With(auth.RequireRole(auth.RoleEmployer)).Post("/{id}/renewals", rh.Request)
		})

		r.Get("/{id}", lh.Get)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/config", ph.Config)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtSvc))
			r.Use(auth.RequireRole(auth.RoleEmployer))
			r.Post("/", ph.Submit)
			r.Get("/status/{listingID}", ph.Status)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Use(auth.RequireRole(auth.RoleAdmin))

		r.Get("/payments/pending", ph.Pending)
		r.Post("/payments/{id}/verdict", ph.Verdict)

		r.Get("/renewals/pending", rh.Pending)
		r.Post("/renewals/{id}/verdict", rh.Verdict)

		r.Delete("/listings/{id}", lh.AdminDelete)
		r.Post("/sweep", sh.Run)
	})

	return r
}
