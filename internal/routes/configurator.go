package routes

import (
	"net/http"

	"github.com/dukerupert/configurator/internal/router"
)

// RegisterConfiguratorRoutes registers the session API. All state lives in
// the session named by {id}; the client only ever holds that id.
func RegisterConfiguratorRoutes(r *router.Router, deps ConfiguratorDeps) {
	h := deps.Handler

	var bodyLimit []router.Middleware
	if deps.BodyLimit != nil {
		bodyLimit = append(bodyLimit, deps.BodyLimit)
	}
	mutating := r.Group(bodyLimit...)

	opening := mutating
	if deps.OpenLimit != nil {
		opening = r.Group(append([]router.Middleware{deps.OpenLimit}, bodyLimit...)...)
	}
	opening.Post("/configurator", h.Open)

	r.Get("/configurator/{id}", h.Show)
	r.Delete("/configurator/{id}", h.Close)
	r.Get("/configurator/{id}/price", h.Price)

	mutating.Post("/configurator/{id}/axes/{code}", h.SetAxis)
	mutating.Post("/configurator/{id}/reset", h.Reset)
	mutating.Post("/configurator/{id}/parameters/{code}", h.SetParameter)
	mutating.Post("/configurator/{id}/quantity", h.SetQuantity)
	mutating.Post("/configurator/{id}/components/{componentId}", h.UpdateComponent)
	mutating.Post("/configurator/{id}/confirm", h.Confirm)
	mutating.Post("/configurator/{id}/cart", h.AddToCart)
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health)
	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics)
	}
}
