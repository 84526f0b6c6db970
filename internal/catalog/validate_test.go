package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apm/internal/catalog"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := catalog.Product{ID: 2, Name: "Garden Cart", Code: "GDN-0023", StarRating: 4.2, Price: 32.99}
	require.NoError(t, catalog.Validate(valid))

	tests := []struct {
		name   string
		mutate func(*catalog.Product)
		msg    string
	}{
		{"short name", func(p *catalog.Product) { p.Name = "ab" }, "productName must be at least 3 characters"},
		{"long name", func(p *catalog.Product) { p.Name = string(make([]byte, 51)) }, "productName must be at most 50 characters"},
		{"bad code", func(p *catalog.Product) { p.Code = "New" }, "productCode must look like ABC-0123"},
		{"missing code", func(p *catalog.Product) { p.Code = "" }, "productCode is required"},
		{"rating above five", func(p *catalog.Product) { p.StarRating = 5.5 }, "starRating must be at most 5"},
		{"negative price", func(p *catalog.Product) { p.Price = -1 }, "price must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := valid
			tt.mutate(&p)
			err := catalog.Validate(p)
			require.ErrorIs(t, err, catalog.ErrInvalidProduct)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := catalog.Product{
		ID:          5,
		Name:        "  <b>Hammer</b>  ",
		Code:        " TBX-0048 ",
		Description: "**Curved** claw",
	}
	got := catalog.Normalize(in)

	require.Equal(t, "Hammer", got.Name)
	require.Equal(t, "TBX-0048", got.Code)
	require.Equal(t, "**Curved** claw", got.Description, "description stays markdown")
	require.Equal(t, 5, got.ID)
	require.NoError(t, catalog.Validate(got))
}

func TestValidate_ProductCode(t *testing.T) {
	t.Parallel()

	base := catalog.Product{ID: 2, Name: "Garden Cart", StarRating: 4.2, Price: 32.99}
	for code, ok := range map[string]bool{
		"GDN-0023":  true,
		"gdn-0023":  true,
		"GDN-023":   false,
		"GD-0023":   false,
		"GDN_0023":  false,
		"GDN-00234": false,
	} {
		t.Run(code, func(t *testing.T) {
			t.Parallel()

			p := base
			p.Code = code
			err := catalog.Validate(p)
			if ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, catalog.ErrInvalidProduct)
			require.Contains(t, err.Error(), "productCode must look like ABC-0123")
		})
	}
}
