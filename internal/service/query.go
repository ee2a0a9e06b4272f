package service

import (
	"context"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/store"
)

// HighAvailableThreshold is the availability floor of the high-available listing mode
const HighAvailableThreshold = 100

// ProductQuery filters product listings.
//
// HighAvailableOnly selects a separate mode: products with at least
// HighAvailableThreshold units available, ignoring CategoryIDs and MinAvailable.
// Otherwise CategoryIDs must all be present on a product and MinAvailable, when
// set, bounds its inventory's available count from below.
type ProductQuery struct {
	CategoryIDs       []string
	MinAvailable      *int
	HighAvailableOnly bool
}

// Pipeline builds the store pipeline for q under the given owner scope
func (q ProductQuery) Pipeline(ownerID string) store.ProductPipeline {
	pipeline := store.ProductPipeline{Match: store.ProductMatch{CreatedBy: ownerID}}

	if q.HighAvailableOnly {
		threshold := HighAvailableThreshold
		pipeline.MinAvailable = &threshold
		return pipeline
	}

	pipeline.Match.AllCategories = store.Dedupe(q.CategoryIDs)
	if q.MinAvailable != nil {
		floor := *q.MinAvailable
		pipeline.MinAvailable = &floor
	}
	return pipeline
}

// ListProducts returns the products visible to caller, joined with inventory and categories.
// Products without a resolvable inventory row are left out.
func (s *CatalogService) ListProducts(ctx context.Context, caller model.Identity, q ProductQuery) ([]model.ProductView, error) {
	scope, err := s.authz.Scope(caller)
	if err != nil {
		return nil, err
	}

	defer s.track("product_aggregate")(time.Now())
	views, err := s.store.Products().Aggregate(ctx, q.Pipeline(scope.OwnerID))
	if err != nil {
		return nil, internal(ctx, "Failed to list products", err)
	}
	return views, nil
}
