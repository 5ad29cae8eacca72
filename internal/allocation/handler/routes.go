package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/medflow/pos-allocation/pkg/httputil"
	"github.com/medflow/pos-allocation/pkg/permissions"
)

// Mount registers the stock and order routes. The router must already
// authenticate requests.
func Mount(r chi.Router, stock *StockHandler, order *OrderHandler) {
	r.Route("/stock", func(r chi.Router) {
		r.Use(httputil.RequirePermission(permissions.StockRead))
		r.Get("/presence", stock.Presence)
		r.Get("/lots", stock.Lots)
	})

	r.With(httputil.RequirePermission(permissions.OrderSubmit)).Post("/orders", order.Submit)
}
