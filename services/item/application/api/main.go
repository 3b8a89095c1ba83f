package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/secondlife-exchange/exchange/pkg/app"
	"github.com/secondlife-exchange/exchange/pkg/auth"
	"github.com/secondlife-exchange/exchange/services/item/application/handlers"
	appsvcs "github.com/secondlife-exchange/exchange/services/item/application/services"
)

// ItemRoutes registers item endpoints on the provided chi router.
// Browsing and reading are public; writes require a session.
func ItemRoutes(r chi.Router, a *app.Application) {
	Routes(r, a, appsvcs.New(a))
}

// Routes registers item endpoints backed by svcs.
func Routes(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	requireAuth := auth.RequireAuth(a.SessionStore, a.Logger)

	r.Route("/item", func(r chi.Router) {
		r.Get("/", handlers.NewListItemsHandler(svcs).Execute)
		r.Get("/{id}", handlers.NewGetItemHandler(svcs).Execute)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", handlers.NewPostItemHandler(svcs).Execute)
			r.Patch("/{id}/status", handlers.NewPatchItemStatusHandler(svcs).Execute)
			r.Delete("/{id}", handlers.NewDeleteItemHandler(svcs).Execute)
		})
	})
}
