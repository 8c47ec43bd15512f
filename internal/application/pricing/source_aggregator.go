package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Candidate is a price source's best match for a calculation request
type Candidate struct {
	Source pricing.PriceSource
	List   *pricing.PriceList
	Item   *pricing.PriceListItem
	// Derived is true when the item was synthesized from a base price list
	// through the list's price modifier
	Derived bool
}

// SourceAggregator gathers the best candidate price from each configured
// source, respecting effective dates and priority ordering
type SourceAggregator struct {
	listRepo       pricing.PriceListRepository
	itemRepo       pricing.PriceListItemRepository
	assignmentRepo pricing.CustomerPriceAssignmentRepository
	order          []pricing.PriceSource
	logger         *zap.Logger
}

// NewSourceAggregator creates a new SourceAggregator with the given
// resolution order. An empty order falls back to the default precedence.
func NewSourceAggregator(
	listRepo pricing.PriceListRepository,
	itemRepo pricing.PriceListItemRepository,
	assignmentRepo pricing.CustomerPriceAssignmentRepository,
	order []pricing.PriceSource,
	logger *zap.Logger,
) *SourceAggregator {
	if len(order) == 0 {
		order = pricing.DefaultResolutionOrder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourceAggregator{
		listRepo:       listRepo,
		itemRepo:       itemRepo,
		assignmentRepo: assignmentRepo,
		order:          order,
		logger:         logger,
	}
}

// Select walks the configured source order and returns the first source that
// produces a candidate. Every attempted source is appended to the trace with
// a selected flag and reason. Returns nil when no source matches.
func (a *SourceAggregator) Select(
	ctx context.Context,
	tenantID uuid.UUID,
	sku string,
	scope RequestScope,
	asOf time.Time,
	trace *[]ResolutionStep,
) (*Candidate, error) {
	assignedListIDs, err := a.assignedListIDs(ctx, tenantID, scope, asOf)
	if err != nil {
		return nil, err
	}

	var selected *Candidate
	for _, source := range a.order {
		if selected != nil {
			break
		}
		if source == pricing.SourceOverride {
			// Overrides are evaluated by the engine before aggregation.
			continue
		}

		candidate, reason, err := a.bestForSource(ctx, tenantID, sku, source, assignedListIDs, asOf)
		if err != nil {
			return nil, err
		}

		step := ResolutionStep{Source: source, Reason: reason}
		if candidate != nil {
			step.Selected = true
			step.PriceListID = &candidate.List.ID
			step.PriceListCode = candidate.List.Code
			selected = candidate
		}
		*trace = append(*trace, step)
	}

	return selected, nil
}

// assignedListIDs resolves which price lists are visible to the requester
// through effective customer price assignments
func (a *SourceAggregator) assignedListIDs(ctx context.Context, tenantID uuid.UUID, scope RequestScope, asOf time.Time) (map[uuid.UUID]bool, error) {
	targetIDs := scope.TargetIDs()
	if len(targetIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	assignments, err := a.assignmentRepo.FindEffectiveForTargets(ctx, tenantID, targetIDs, asOf)
	if err != nil {
		return nil, err
	}
	visible := make(map[uuid.UUID]bool, len(assignments))
	for _, assignment := range assignments {
		visible[assignment.PriceListID] = true
	}
	return visible, nil
}

// bestForSource finds the single highest-priority candidate of one source,
// with ties broken by (priority asc, effectiveFrom desc, id asc)
func (a *SourceAggregator) bestForSource(
	ctx context.Context,
	tenantID uuid.UUID,
	sku string,
	source pricing.PriceSource,
	assignedListIDs map[uuid.UUID]bool,
	asOf time.Time,
) (*Candidate, string, error) {
	listType, ok := source.ListType()
	if !ok {
		return nil, "source has no backing price list type", nil
	}

	lists, err := a.listRepo.FindEffectiveByType(ctx, tenantID, listType, asOf)
	if err != nil {
		return nil, "", err
	}
	if len(lists) == 0 {
		return nil, fmt.Sprintf("no effective %s price lists", listType), nil
	}

	if source.RequiresAssignment() {
		filtered := lists[:0]
		for _, list := range lists {
			if assignedListIDs[list.ID] {
				filtered = append(filtered, list)
			}
		}
		lists = filtered
		if len(lists) == 0 {
			return nil, fmt.Sprintf("no %s price lists assigned to requester", listType), nil
		}
	}

	sort.Slice(lists, func(i, j int) bool {
		if lists[i].Priority != lists[j].Priority {
			return lists[i].Priority < lists[j].Priority
		}
		if !lists[i].EffectiveFrom.Equal(lists[j].EffectiveFrom) {
			return lists[i].EffectiveFrom.After(lists[j].EffectiveFrom)
		}
		return lists[i].ID.String() < lists[j].ID.String()
	})

	for i := range lists {
		list := &lists[i]
		item, derived, err := a.itemForList(ctx, tenantID, list, sku, asOf)
		if err != nil {
			return nil, "", err
		}
		if item == nil {
			continue
		}
		a.logger.Debug("price source candidate selected",
			zap.String("source", source.String()),
			zap.String("price_list", list.Code),
			zap.String("sku", sku),
			zap.Bool("derived", derived),
		)
		return &Candidate{Source: source, List: list, Item: item, Derived: derived}, "candidate selected", nil
	}

	return nil, fmt.Sprintf("no effective item for SKU in %s lists", listType), nil
}

// itemForList looks up the list's own item for the SKU, falling back to the
// base list's item with the price modifier applied for derived (delta) lists
func (a *SourceAggregator) itemForList(ctx context.Context, tenantID uuid.UUID, list *pricing.PriceList, sku string, asOf time.Time) (*pricing.PriceListItem, bool, error) {
	item, err := a.itemRepo.FindBySKU(ctx, tenantID, list.ID, sku)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	if item != nil && item.IsEffectiveAt(asOf) {
		return item, false, nil
	}

	if list.BasePriceListID == nil {
		return nil, false, nil
	}
	baseItem, err := a.itemRepo.FindBySKU(ctx, tenantID, *list.BasePriceListID, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !baseItem.IsEffectiveAt(asOf) {
		return nil, false, nil
	}
	return deriveItem(baseItem, list), true, nil
}

// deriveItem applies a delta list's percent modifier to the base list's item
func deriveItem(base *pricing.PriceListItem, list *pricing.PriceList) *pricing.PriceListItem {
	multiplier := decimal.NewFromInt(100).Add(list.PriceModifier).Div(decimal.NewFromInt(100))
	derived := *base
	derived.PriceListID = list.ID
	derived.BasePrice = base.BasePrice.Mul(multiplier)
	derived.ListPrice = base.ListPrice.Mul(multiplier)
	if len(base.QuantityBreaks) > 0 {
		breaks := make(pricing.QuantityBreaks, len(base.QuantityBreaks))
		copy(breaks, base.QuantityBreaks)
		for i := range breaks {
			if breaks[i].Price != nil {
				scaled := breaks[i].Price.Mul(multiplier)
				breaks[i].Price = &scaled
			}
		}
		derived.QuantityBreaks = breaks
	}
	return &derived
}
