package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/secondlife-exchange/exchange/pkg/app"
	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/services/matching/application/handlers"
	appsvcs "github.com/secondlife-exchange/exchange/services/matching/application/services"
)

// MatchingRoutes registers matching endpoints on the provided chi router.
func MatchingRoutes(r chi.Router, a *app.Application) {
	Routes(r, a, appsvcs.New(a))
}

// Routes registers matching endpoints backed by svcs. Recommendations accept
// anonymous callers; preferences require a session.
func Routes(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	r.Route("/matching", func(r chi.Router) {
		r.With(auth.OptionalAuth(a.SessionStore, a.Logger)).
			Get("/recommendations", handlers.NewGetRecommendationsHandler(svcs).Execute)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(a.SessionStore, a.Logger))
			r.Get("/preferences", handlers.NewGetPreferencesHandler(svcs).Execute)
			r.Post("/preferences", handlers.NewPostPreferencesHandler(svcs).Execute)
		})
	})
}
