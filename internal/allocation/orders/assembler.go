package orders

import (
	"context"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/medflow/pos-allocation/pkg/logger"
	"github.com/shopspring/decimal"
)

// Planner produces allocation plans for lot selection
type Planner interface {
	PlanAllocation(ctx context.Context, req domain.PlanRequest) (*domain.Plan, error)
}

// LineRequest is one product the cashier added
type LineRequest struct {
	ProductID int64
	LotName   string
	Tracked   bool
	Quantity  decimal.Decimal
}

// SubmitRequest is an order as sent by the POS front end
type SubmitRequest struct {
	Caller          domain.Caller
	SessionID       *int64
	LocationID      *int64
	ConfigID        *int64
	Draft           bool
	ExistingOrderID *int64
	Lines           []LineRequest
}

// Assembler builds orders, assigning lots to tracked lines the cashier left open
type Assembler struct {
	planner   Planner
	processor Processor
	logger    *logger.Logger
}

// NewAssembler creates a new order assembler
func NewAssembler(planner Planner, processor Processor, log *logger.Logger) *Assembler {
	return &Assembler{
		planner:   planner,
		processor: processor,
		logger:    log.WithComponent("order-assembler"),
	}
}

// Build turns the request into an order. Tracked lines without a lot get the
// first planned lot with remaining stock. When the plan cannot be fetched the
// line is kept without a lot so the cashier can pick one by hand.
func (a *Assembler) Build(ctx context.Context, req SubmitRequest) (*Order, error) {
	order := &Order{
		SessionID: req.SessionID,
		UserID:    req.Caller.ActorID,
		CompanyID: req.Caller.ScopeID,
	}

	for _, lr := range req.Lines {
		lotName := lr.LotName

		if lr.Tracked && lotName == "" {
			plan, err := a.planner.PlanAllocation(ctx, domain.PlanRequest{
				ProductID:  lr.ProductID,
				LocationID: req.LocationID,
				ConfigID:   req.ConfigID,
				Caller:     req.Caller,
			})
			switch {
			case errors.Is(err, errors.ErrLookup):
				a.logger.Warn().Err(err).Int64("product_id", lr.ProductID).Msg("allocation plan unavailable, adding line without lot")
			case err != nil:
				return nil, err
			default:
				if lotName, err = order.SelectLot(lr.ProductID, plan); err != nil {
					return nil, err
				}
			}
		}

		order.AddProduct(lr.ProductID, lotName, lr.Tracked, lr.Quantity)
	}

	return order, nil
}

// Submit builds the order and hands it to the processor
func (a *Assembler) Submit(ctx context.Context, req SubmitRequest) (*Order, *Result, error) {
	order, err := a.Build(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	result, err := a.processor.ProcessOrder(ctx, order, req.Draft, req.ExistingOrderID)
	if err != nil {
		return nil, nil, err
	}

	return order, result, nil
}
