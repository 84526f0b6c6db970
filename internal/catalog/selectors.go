package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dmitrymomot/apm/pkg/sanitizer"
	"github.com/dmitrymomot/apm/pkg/selector"
)

var emptyCatalog = InitialState()

// Selectors is the set of memoized catalog read models.
//
// Selector caches are per instance, so every store gets its own Selectors
// (see NewSelectors).
type Selectors struct {
	Feature selector.Input[*State]

	ShowProductCode  *selector.Selector[bool]
	CurrentProductID *selector.Selector[NullID]
	Products         *selector.Selector[[]Product]
	Filter           *selector.Selector[string]
	Error            *selector.Selector[string]

	// CurrentProduct resolves the current id: the blank product for
	// NewProductID, nil when nothing is selected or the product is gone.
	CurrentProduct *selector.Selector[*Product]

	// VisibleProducts applies the list filter (case-insensitive match on
	// name and code).
	VisibleProducts *selector.Selector[[]Product]

	// CurrentProductDescriptionHTML renders the current product description
	// from markdown to sanitized HTML.
	CurrentProductDescriptionHTML *selector.Selector[string]

	// ProductByID looks a product up by id.
	ProductByID *selector.Family[int, *Product]
}

// NewSelectors builds the catalog selectors.
func NewSelectors() *Selectors {
	feature := selector.Feature(FeatureKey, emptyCatalog)

	s := &Selectors{Feature: feature}
	s.ShowProductCode = selector.New1(feature, func(st *State) bool { return st.ShowProductCode })
	s.CurrentProductID = selector.New1(feature, func(st *State) NullID { return st.CurrentProductID })
	s.Filter = selector.New1(feature, func(st *State) string { return st.Filter })
	s.Error = selector.New1(feature, func(st *State) string { return st.Error })

	// The slice input keeps its identity until a reducer replaces it, so the
	// clone below runs once per change.
	rawProducts := selector.New1(feature, func(st *State) []Product { return st.Products })
	s.Products = selector.New1(rawProducts.Select, func(ps []Product) []Product {
		if ps == nil {
			return []Product{}
		}
		return slices.Clone(ps)
	})

	s.CurrentProduct = selector.New2(s.Products.Select, s.CurrentProductID.Select, ResolveCurrent)
	s.VisibleProducts = selector.New2(s.Products.Select, s.Filter.Select, FilterProducts)
	s.CurrentProductDescriptionHTML = selector.New1(s.CurrentProduct.Select, func(p *Product) string {
		if p == nil {
			return ""
		}
		return RenderDescription(p.Description)
	})

	s.ProductByID = selector.NewFamily(func(id int) *selector.Selector[*Product] {
		return selector.New1(s.Products.Select, func(ps []Product) *Product { return find(ps, id) })
	}, 64)

	return s
}

// Close releases the ProductByID cache.
func (s *Selectors) Close() error {
	return s.ProductByID.Close()
}

// ResolveCurrent maps the current id onto the product list.
func ResolveCurrent(products []Product, id NullID) *Product {
	switch {
	case !id.Valid:
		return nil
	case id.IsNew():
		p := BlankProduct()
		return &p
	default:
		return find(products, id.ID)
	}
}

func find(products []Product, id int) *Product {
	i := slices.IndexFunc(products, func(p Product) bool { return p.ID == id })
	if i < 0 {
		return nil
	}
	p := products[i]
	return &p
}

// FilterProducts keeps the products whose name or code contains filter,
// compared with Unicode case folding. An empty filter keeps everything.
func FilterProducts(products []Product, filter string) []Product {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return products
	}

	fold := cases.Fold()
	needle := fold.String(filter)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(fold.String(p.Name), needle) || strings.Contains(fold.String(p.Code), needle) {
			out = append(out, p)
		}
	}
	return out
}

// RenderDescription converts a markdown description to sanitized HTML.
func RenderDescription(src string) string {
	return sanitizer.Markdown(src)
}
