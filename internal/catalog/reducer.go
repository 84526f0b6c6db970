package catalog

import (
	"slices"

	"github.com/dmitrymomot/apm/pkg/store"
)

// Reduce is the catalog reducer.
//
// Policies:
//   - LoadFail clears the product list and records the error.
//   - Create and Update successes upsert by id and select the saved product.
//     A payload still carrying NewProductID is ignored.
//   - DeleteProductSuccess removes the product and clears the selection.
//   - Every Fail records its error and keeps the list.
//
// Actions of other features, and the trigger-only actions, return s itself.
func Reduce(s *State, action store.Action) *State {
	a, ok := action.(Action)
	if !ok {
		return s
	}
	if s == nil {
		s = InitialState()
	}

	switch a := a.(type) {
	case ToggleProductCode:
		next := *s
		next.ShowProductCode = a.Show
		return &next

	case SetCurrentProduct:
		next := *s
		next.CurrentProductID = IDOf(a.Product.ID)
		return &next

	case ClearCurrentProduct:
		next := *s
		next.CurrentProductID = NullID{}
		return &next

	case InitializeCurrentProduct:
		next := *s
		next.CurrentProductID = IDOf(NewProductID)
		return &next

	case SetListFilter:
		next := *s
		next.Filter = a.Filter
		return &next

	case LoadSuccess:
		next := *s
		next.Products = slices.Clone(a.Products)
		next.Error = ""
		return &next

	case LoadFail:
		next := *s
		next.Products = nil
		next.Error = a.Error
		return &next

	case CreateProductSuccess:
		return saved(s, a.Product)

	case UpdateProductSuccess:
		return saved(s, a.Product)

	case DeleteProductSuccess:
		next := *s
		next.Products = slices.DeleteFunc(slices.Clone(s.Products), func(p Product) bool { return p.ID == a.ID })
		next.CurrentProductID = NullID{}
		next.Error = ""
		return &next

	case UpdateProductFail:
		return failed(s, a.Error)
	case CreateProductFail:
		return failed(s, a.Error)
	case DeleteProductFail:
		return failed(s, a.Error)

	case Load, UpdateProduct, CreateProduct, DeleteProduct:
		return s
	}
	return s
}

func saved(s *State, p Product) *State {
	if p.ID == NewProductID {
		return s
	}
	next := *s
	next.Products = upsert(s.Products, p)
	next.CurrentProductID = IDOf(p.ID)
	next.Error = ""
	return &next
}

func failed(s *State, msg string) *State {
	next := *s
	next.Error = msg
	return &next
}

// upsert replaces the products with p's id, or appends p. items is not modified.
func upsert(items []Product, p Product) []Product {
	out := make([]Product, 0, len(items)+1)
	found := false
	for _, it := range items {
		if it.ID == p.ID {
			if !found {
				out = append(out, p)
				found = true
			}
			continue
		}
		out = append(out, it)
	}
	if !found {
		out = append(out, p)
	}
	return out
}
