package catalog

import "github.com/dmitrymomot/apm/pkg/store"

// FeatureKey is the slice key of the catalog feature.
const FeatureKey = "products"

// State is the catalog slice.
//
// CurrentProductID may reference a product that has been deleted in the
// meantime; selectors resolve such ids to nil.
type State struct {
	ShowProductCode  bool      `json:"showProductCode"`
	CurrentProductID NullID    `json:"currentProductId"`
	Products         []Product `json:"products"`
	Filter           string    `json:"listFilter"`
	Error            string    `json:"error"`
}

// InitialState returns the slice a fresh store starts from.
func InitialState() *State {
	return &State{ShowProductCode: true}
}

// Feature registers the catalog reducer under FeatureKey.
func Feature() store.Feature {
	return store.NewFeature(FeatureKey, InitialState(), Reduce)
}
