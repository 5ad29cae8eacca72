package handler

import (
	"net/http"
	"strconv"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/internal/allocation/service"
	"github.com/medflow/pos-allocation/pkg/actor"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/medflow/pos-allocation/pkg/httputil"
	"github.com/medflow/pos-allocation/pkg/logger"
)

// StockHandler serves presence checks and allocation plans
type StockHandler struct {
	presence *service.PresenceChecker
	planner  *service.Planner
	logger   *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(presence *service.PresenceChecker, planner *service.Planner, log *logger.Logger) *StockHandler {
	return &StockHandler{
		presence: presence,
		planner:  planner,
		logger:   log,
	}
}

type presenceQuery struct {
	ProductID  int64 `json:"product_id" validate:"required,gt=0"`
	LocationID int64 `json:"location_id" validate:"required,gt=0"`
}

type lotsQuery struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	LocationID *int64 `json:"location_id" validate:"omitempty,gt=0,excluded_with=ConfigID"`
	ConfigID   *int64 `json:"config_id" validate:"omitempty,gt=0"`
}

// Presence reports whether a product has positive stock at a location
func (h *StockHandler) Presence(w http.ResponseWriter, r *http.Request) {
	params := newQueryParams(r)
	q := presenceQuery{
		ProductID:  params.requiredInt64("product_id"),
		LocationID: params.requiredInt64("location_id"),
	}
	if err := params.err(); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(q); err != nil {
		httputil.Error(w, err)
		return
	}

	presence, err := h.presence.CheckPresence(r.Context(), q.ProductID, q.LocationID)
	if err != nil {
		h.logger.Error().Err(err).Int64("product_id", q.ProductID).Msg("presence check failed")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toPresenceResponse(presence))
}

// Lots returns the allocation plan of a product for the caller
func (h *StockHandler) Lots(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	if a == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	params := newQueryParams(r)
	q := lotsQuery{
		ProductID:  params.requiredInt64("product_id"),
		LocationID: params.optionalInt64("location_id"),
		ConfigID:   params.optionalInt64("config_id"),
	}
	if err := params.err(); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(q); err != nil {
		httputil.Error(w, err)
		return
	}

	plan, err := h.planner.PlanAllocation(r.Context(), domain.PlanRequest{
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		ConfigID:   q.ConfigID,
		Caller:     domain.Caller{ActorID: a.ID, ScopeID: a.ScopeID},
	})
	if err != nil {
		h.logger.Error().Err(err).Int64("product_id", q.ProductID).Msg("allocation planning failed")
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toPlanResponse(plan))
}

// queryParams parses integer query parameters, collecting errors per parameter
type queryParams struct {
	r       *http.Request
	invalid map[string]string
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{r: r, invalid: map[string]string{}}
}

func (p *queryParams) optionalInt64(name string) *int64 {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.invalid[name] = "must be an integer"
		return nil
	}
	return &v
}

// requiredInt64 returns 0 for a missing parameter so that validation reports it as required
func (p *queryParams) requiredInt64(name string) int64 {
	if v := p.optionalInt64(name); v != nil {
		return *v
	}
	return 0
}

func (p *queryParams) err() error {
	if len(p.invalid) == 0 {
		return nil
	}
	return errors.Validation(p.invalid)
}
