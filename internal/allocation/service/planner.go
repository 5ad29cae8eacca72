package service

import (
	"context"

	"github.com/medflow/pos-allocation/internal/allocation/domain"
	"github.com/medflow/pos-allocation/pkg/logger"
	"github.com/shopspring/decimal"
)

// Planner builds lot allocation plans for point-of-sale lines.
// It only reads; nothing is reserved or moved.
type Planner struct {
	presence *PresenceChecker
	ledger   QuantityLedger
	catalog  CatalogSource
	lots     LotSource
	sessions SessionSource
	configs  ConfigSource
	logger   *logger.Logger
}

// NewPlanner creates a new allocation planner
func NewPlanner(
	ledger QuantityLedger,
	catalog CatalogSource,
	lots LotSource,
	sessions SessionSource,
	configs ConfigSource,
	log *logger.Logger,
) *Planner {
	return &Planner{
		presence: NewPresenceChecker(ledger),
		ledger:   ledger,
		catalog:  catalog,
		lots:     lots,
		sessions: sessions,
		configs:  configs,
		logger:   log.WithComponent("planner"),
	}
}

// PlanAllocation returns the lots of the product with positive stock at the
// resolved location, ordered by the product's removal policy.
// Any collaborator error aborts the plan.
func (p *Planner) PlanAllocation(ctx context.Context, req domain.PlanRequest) (*domain.Plan, error) {
	locationID, ok, err := p.resolveLocation(ctx, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.logger.Debug().
			Int64("product_id", req.ProductID).
			Int64("actor_id", req.Caller.ActorID).
			Msg("no location and no open session, empty plan")
		return domain.EmptyPlan(decimal.Zero), nil
	}

	presence, err := p.presence.CheckPresence(ctx, req.ProductID, locationID)
	if err != nil {
		return nil, err
	}
	if !presence.HasPositiveStock {
		p.logger.Debug().
			Int64("product_id", req.ProductID).
			Int64("location_id", locationID).
			Str("total", presence.Total.String()).
			Msg("no positive stock, skipping lot lookup")
		return domain.EmptyPlan(presence.Total), nil
	}

	method, err := p.catalog.RemovalStrategy(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	policy := domain.PolicyFromStrategy(method)

	lots, err := p.lots.ListLots(ctx, domain.LotFilter{
		ProductID: req.ProductID,
		ScopeID:   req.Caller.ScopeID,
	})
	if err != nil {
		return nil, err
	}
	policy.SortLots(lots)

	allocations := make([]domain.LotAllocation, 0, len(lots))
	for _, lot := range lots {
		lotID := lot.ID
		qty, err := p.ledger.SumQuantity(ctx, domain.QuantFilter{
			ProductID:  req.ProductID,
			LotID:      &lotID,
			LocationID: locationID,
		})
		if err != nil {
			return nil, err
		}
		if !qty.IsPositive() {
			continue
		}

		allocations = append(allocations, domain.LotAllocation{
			LotName:           lot.Name,
			LotID:             lot.ID,
			AvailableQuantity: qty,
			ExpirationDate:    lot.ExpirationDate,
		})
	}

	p.logger.Debug().
		Int64("product_id", req.ProductID).
		Int64("location_id", locationID).
		Str("policy", policy.String()).
		Int("candidates", len(lots)).
		Int("allocated", len(allocations)).
		Msg("allocation planned")

	return &domain.Plan{
		HasPositiveStock: true,
		TotalQuantity:    presence.Total,
		Lots:             allocations,
	}, nil
}

// resolveLocation picks the location from the request, the POS config or the
// caller's open session, in that order. ok is false when none applies.
func (p *Planner) resolveLocation(ctx context.Context, req domain.PlanRequest) (int64, bool, error) {
	if req.LocationID != nil {
		return *req.LocationID, true, nil
	}

	configID := req.ConfigID
	if configID == nil {
		session, err := p.sessions.FindActiveSession(ctx, req.Caller.ActorID)
		if err != nil {
			return 0, false, err
		}
		if session == nil {
			return 0, false, nil
		}
		configID = &session.ConfigID
	}

	locationID, err := p.configs.DefaultSourceLocation(ctx, *configID)
	if err != nil {
		return 0, false, err
	}
	if locationID == nil {
		p.logger.Debug().Int64("config_id", *configID).Msg("pos config has no source location")
		return 0, false, nil
	}

	return *locationID, true, nil
}
