package handler

import (
	"net/http"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/internal/allocation/orders"
	"github.com/medflow/pos-allocation/pkg/actor"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/medflow/pos-allocation/pkg/httputil"
	"github.com/medflow/pos-allocation/pkg/logger"
)

// OrderHandler accepts POS orders and forwards them to the order pipeline
type OrderHandler struct {
	assembler *orders.Assembler
	logger    *logger.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(assembler *orders.Assembler, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		assembler: assembler,
		logger:    log,
	}
}

// Submit assigns lots to open tracked lines and forwards the order
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	if a == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	var req SubmitOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	submit := orders.SubmitRequest{
		Caller:          domain.Caller{ActorID: a.ID, ScopeID: a.ScopeID},
		SessionID:       req.SessionID,
		LocationID:      req.LocationID,
		ConfigID:        req.ConfigID,
		Draft:           req.Draft,
		ExistingOrderID: req.ExistingOrderID,
		Lines:           make([]orders.LineRequest, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		submit.Lines = append(submit.Lines, orders.LineRequest{
			ProductID: l.ProductID,
			LotName:   l.LotName,
			Tracked:   l.Tracked,
			Quantity:  l.Quantity,
		})
	}

	order, result, err := h.assembler.Submit(r.Context(), submit)
	if err != nil {
		h.logger.Warn().Err(err).Str("actor", a.String()).Msg("order rejected")
		httputil.Error(w, err)
		return
	}

	httputil.Accepted(w, toSubmitOrderResponse(order, result))
}
