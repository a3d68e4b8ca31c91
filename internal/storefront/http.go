package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PartsShop/internal/catalog"
	"PartsShop/internal/session"
	"PartsShop/internal/upload"
	"PartsShop/pkg/kit"
)

const (
	routeLogin = "/admin"
	routePanel = "/admin/panel"
)

type Server struct {
	Catalog  *catalog.Catalog
	Sessions *session.CookieCodec
	Uploads  *upload.Store
	Admin    *Credentials
	Render   Renderer
	Log      *zap.Logger
	Metrics  *kit.Metrics

	Presets    []string
	SessionTTL time.Duration
	StaticDir  string

	// Now is the clock used for session expiry; nil means time.Now.
	Now func() time.Time
}

// Routes builds the public and admin surface. loginLimit wraps the credential
// check endpoints.
func (s *Server) Routes(loginLimit func(http.Handler) http.Handler) http.Handler {
	if loginLimit == nil {
		loginLimit = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	if s.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(filesOnly{http.Dir(s.StaticDir)})))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.storefront(PageIndex))
		r.Get("/alt", s.storefront(PageAlt))

		for _, p := range []string{"/admin", "/login"} {
			r.Get(p, s.loginForm)
			r.With(loginLimit).Post(p, s.login)
		}

		r.Get("/admin/logout", s.logout)
		r.Get("/admin_logout", s.logout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/admin/panel", s.panel)

			r.Post("/admin/add", s.add)
			r.Post("/add", s.add)

			r.Post("/admin/delete/{index}", s.deleteAt)
			r.Post("/delete/{index}", s.deleteAt)
			r.Post("/admin/edit/{index}", s.editAt)

			r.Post("/admin/products/{id}/delete", s.deleteByID)
			r.Post("/admin/products/{id}/edit", s.editByID)
		})
	})

	return r
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) ttl() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return session.DefaultTTL
}

func (s *Server) presets() []string {
	if s.Presets != nil {
		return s.Presets
	}
	return catalog.DefaultCategories
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Catalog.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) storefront(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		c := catalog.Criteria{
			Search:   q.Get("search"),
			Category: q.Get("category"),
			Year:     q.Get("year"),
			Make:     q.Get("make"),
			Model:    q.Get("model"),
		}

		products := s.Catalog.List(r.Context())

		s.Render.Render(w, r, http.StatusOK, page, StorefrontPage{
			Products:         catalog.Filter(products, c),
			Categories:       catalog.Categories(products, s.presets()),
			Search:           c.Search,
			SelectedCategory: c.Category,
			Year:             c.Year,
			Make:             c.Make,
			Model:            c.Model,
			Filtered:         !c.IsZero(),
		})
	}
}
