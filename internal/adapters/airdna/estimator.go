// internal/adapters/airdna/estimator.go
package airdna

import (
	"context"

	"owner_portal/internal/domain"
)

// Estimator is the seam for the rental-income estimate capability. The
// upstream integration is a browser-automation scrape of a third-party
// analytics site; it is brittle by nature and intentionally not reproduced
// here. This implementation always reports the capability unavailable, and
// callers must treat that as a normal outcome.
type Estimator struct{}

func New() *Estimator { return &Estimator{} }

func (*Estimator) EstimateIncome(ctx context.Context, address string, details domain.PropertyDetails) (domain.Estimate, error) {
	return domain.Estimate{}, domain.ErrEstimateUnavailable
}
