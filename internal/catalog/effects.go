package catalog

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/apm/pkg/effect"
	"github.com/dmitrymomot/apm/pkg/store"
)

// Effects binds the catalog triggers to api:
//
//	Load           switch  a newer load supersedes the pending one
//	UpdateProduct  concat  edits of the same product must land in order
//	CreateProduct  merge   creates are independent
//	DeleteProduct  merge   deletes are independent
//
// Create and update payloads are normalized and validated before the call;
// an invalid product becomes a Fail action without reaching the API.
func Effects(api API) []effect.Effect {
	return []effect.Effect{
		effect.On(effect.Switch,
			func(ctx context.Context, _ Load) (store.Action, error) {
				products, err := api.List(ctx)
				if err != nil {
					return nil, err
				}
				return LoadSuccess{Products: products}, nil
			},
			func(_ Load, err error) store.Action {
				return LoadFail{Error: effect.ErrorMessage(err)}
			},
		),

		effect.On(effect.Concat,
			func(ctx context.Context, a UpdateProduct) (store.Action, error) {
				if a.Product.ID == NewProductID {
					return nil, fmt.Errorf("%w: product has not been created yet", ErrInvalidProduct)
				}
				p := Normalize(a.Product)
				if err := Validate(p); err != nil {
					return nil, err
				}
				updated, err := api.Update(ctx, p)
				if err != nil {
					return nil, err
				}
				if updated.ID == NewProductID {
					return nil, ErrNoID
				}
				return UpdateProductSuccess{Product: updated}, nil
			},
			func(_ UpdateProduct, err error) store.Action {
				return UpdateProductFail{Error: effect.ErrorMessage(err)}
			},
		),

		effect.On(effect.Merge,
			func(ctx context.Context, a CreateProduct) (store.Action, error) {
				p := Normalize(a.Product)
				if err := Validate(p); err != nil {
					return nil, err
				}
				p.ID = NewProductID
				created, err := api.Create(ctx, p)
				if err != nil {
					return nil, err
				}
				if created.ID == NewProductID {
					return nil, ErrNoID
				}
				return CreateProductSuccess{Product: created}, nil
			},
			func(_ CreateProduct, err error) store.Action {
				return CreateProductFail{Error: effect.ErrorMessage(err)}
			},
		),

		effect.On(effect.Merge,
			func(ctx context.Context, a DeleteProduct) (store.Action, error) {
				if a.ID == NewProductID {
					return nil, fmt.Errorf("%w: %d", ErrNotFound, a.ID)
				}
				id, err := api.Delete(ctx, a.ID)
				if err != nil {
					return nil, err
				}
				return DeleteProductSuccess{ID: id}, nil
			},
			func(_ DeleteProduct, err error) store.Action {
				return DeleteProductFail{Error: effect.ErrorMessage(err)}
			},
		),
	}
}
