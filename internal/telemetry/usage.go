package telemetry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nerrad567/telemetry-core/internal/device"
)

// Aggregator sums consumed units over a relative time window.
type Aggregator struct {
	repo  Repository
	guard device.Guard
	now   func() time.Time
}

// NewAggregator creates an aggregator reading through repo.
func NewAggregator(repo Repository, guard device.Guard) *Aggregator {
	return &Aggregator{repo: repo, guard: guard, now: time.Now}
}

// SetClock overrides the time source the window is measured back from.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// AggregateUsage totals the units_consumed values logged for the owner's
// device since the start of rng (see ParseRange). The range is echoed back
// exactly as given.
func (a *Aggregator) AggregateUsage(ctx context.Context, ownerID, deviceID, rng string) (*Usage, error) {
	dev, err := a.guard.Resolve(ctx, ownerID, deviceID)
	if err != nil {
		return nil, err
	}

	since := ParseRange(rng, a.now().UTC())

	total, err := a.repo.SumValues(ctx, dev.OwnerID, dev.ID, EventUnitsConsumed, since)
	if err != nil {
		return nil, err
	}
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return nil, fmt.Errorf("%w: device %s since %s", ErrUsageOverflow, dev.ID, since.Format(time.RFC3339))
	}

	return &Usage{
		DeviceID:       deviceID,
		TotalUnitsLast: rng,
		TotalUnits:     total,
	}, nil
}
