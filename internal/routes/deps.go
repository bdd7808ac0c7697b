package routes

import (
	"net/http"

	"github.com/dukerupert/configurator/internal/handler/storefront"
	"github.com/dukerupert/configurator/internal/router"
)

// ConfiguratorDeps contains dependencies for the configurator API
type ConfiguratorDeps struct {
	Handler *storefront.ConfiguratorHandler

	// OpenLimit guards session creation. Nil disables it.
	OpenLimit router.Middleware

	// BodyLimit caps request bodies on mutating routes. Nil disables it.
	BodyLimit router.Middleware
}

// OpsDeps contains dependencies for operational endpoints
type OpsDeps struct {
	Health  http.HandlerFunc
	Metrics http.Handler
}
