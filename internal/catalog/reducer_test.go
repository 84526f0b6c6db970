package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apm/internal/catalog"
	"github.com/dmitrymomot/apm/pkg/store"
)

type foreign struct{}

func (foreign) Kind() store.Kind { return "[User] Mask User Name" }

var (
	widget = catalog.Product{ID: 1, Name: "Widget", Code: "WDG-0001", StarRating: 4, Price: 9.5}
	hammer = catalog.Product{ID: 5, Name: "Hammer", Code: "TBX-0048", StarRating: 4.8, Price: 8.9}
	saw    = catalog.Product{ID: 3, Name: "Saw", Code: "TBX-0022", StarRating: 3.7, Price: 11.55}
)

func loaded(products ...catalog.Product) *catalog.State {
	return catalog.Reduce(catalog.InitialState(), catalog.LoadSuccess{Products: products})
}

func TestReduce_Identity(t *testing.T) {
	t.Parallel()

	s := loaded(widget)

	noops := []store.Action{
		foreign{},
		store.Init{},
		catalog.Load{},
		catalog.UpdateProduct{Product: widget},
		catalog.CreateProduct{Product: widget},
		catalog.DeleteProduct{ID: 1},
		catalog.CreateProductSuccess{Product: catalog.BlankProduct()},
		catalog.UpdateProductSuccess{Product: catalog.BlankProduct()},
	}
	for _, a := range noops {
		t.Run(string(a.Kind()), func(t *testing.T) {
			t.Parallel()
			require.Same(t, s, catalog.Reduce(s, a))
		})
	}
}

func TestReduce(t *testing.T) {
	t.Parallel()

	t.Run("nil slice starts from the initial state", func(t *testing.T) {
		t.Parallel()

		s := catalog.Reduce(nil, catalog.SetListFilter{Filter: "x"})
		require.True(t, s.ShowProductCode)
		require.Equal(t, "x", s.Filter)
	})

	t.Run("toggle product code", func(t *testing.T) {
		t.Parallel()

		before := catalog.InitialState()
		after := catalog.Reduce(before, catalog.ToggleProductCode{Show: false})
		require.NotSame(t, before, after)
		require.False(t, after.ShowProductCode)
		require.True(t, before.ShowProductCode)
	})

	t.Run("current product id transitions", func(t *testing.T) {
		t.Parallel()

		s := catalog.Reduce(loaded(widget), catalog.SetCurrentProduct{Product: widget})
		require.Equal(t, catalog.IDOf(1), s.CurrentProductID)

		s = catalog.Reduce(s, catalog.InitializeCurrentProduct{})
		require.True(t, s.CurrentProductID.IsNew())

		s = catalog.Reduce(s, catalog.ClearCurrentProduct{})
		require.False(t, s.CurrentProductID.Valid)
	})

	t.Run("load success replaces products and clears error", func(t *testing.T) {
		t.Parallel()

		s := catalog.Reduce(catalog.InitialState(), catalog.LoadFail{Error: "offline"})
		payload := []catalog.Product{widget}
		s = catalog.Reduce(s, catalog.LoadSuccess{Products: payload})

		require.Equal(t, []catalog.Product{widget}, s.Products)
		require.Empty(t, s.Error)

		payload[0].Name = "mutated"
		require.Equal(t, "Widget", s.Products[0].Name, "state must not alias the payload")
	})

	t.Run("load fail clears products", func(t *testing.T) {
		t.Parallel()

		s := catalog.Reduce(loaded(widget, hammer), catalog.LoadFail{Error: "offline"})
		require.Empty(t, s.Products)
		require.Equal(t, "offline", s.Error)
	})

	t.Run("create success appends and selects", func(t *testing.T) {
		t.Parallel()

		before := loaded(widget)
		s := catalog.Reduce(before, catalog.CreateProductSuccess{Product: hammer})

		require.Equal(t, []catalog.Product{widget, hammer}, s.Products)
		require.Equal(t, catalog.IDOf(5), s.CurrentProductID)
		require.Len(t, before.Products, 1)
	})

	t.Run("update success replaces in place", func(t *testing.T) {
		t.Parallel()

		changed := hammer
		changed.Price = 12
		s := catalog.Reduce(loaded(widget, hammer, saw), catalog.UpdateProductSuccess{Product: changed})

		require.Equal(t, []catalog.Product{widget, changed, saw}, s.Products)
		require.Equal(t, catalog.IDOf(5), s.CurrentProductID)
	})

	t.Run("upsert is idempotent", func(t *testing.T) {
		t.Parallel()

		v1 := hammer
		v2 := hammer
		v2.Name = "Claw Hammer"

		s := loaded(widget)
		s = catalog.Reduce(s, catalog.CreateProductSuccess{Product: v1})
		s = catalog.Reduce(s, catalog.UpdateProductSuccess{Product: v2})
		s = catalog.Reduce(s, catalog.UpdateProductSuccess{Product: v2})

		count := 0
		for _, p := range s.Products {
			if p.ID == 5 {
				count++
				require.Equal(t, "Claw Hammer", p.Name)
			}
		}
		require.Equal(t, 1, count)
	})

	t.Run("delete success removes and clears selection", func(t *testing.T) {
		t.Parallel()

		s := loaded(widget, saw)
		s = catalog.Reduce(s, catalog.SetCurrentProduct{Product: saw})
		s = catalog.Reduce(s, catalog.DeleteProductFail{Error: "busy"})
		s = catalog.Reduce(s, catalog.DeleteProductSuccess{ID: 3})

		require.Equal(t, []catalog.Product{widget}, s.Products)
		require.False(t, s.CurrentProductID.Valid)
		require.Empty(t, s.Error)
	})

	t.Run("fail actions keep the products", func(t *testing.T) {
		t.Parallel()

		for _, a := range []store.Action{
			catalog.CreateProductFail{Error: "e1"},
			catalog.UpdateProductFail{Error: "e2"},
			catalog.DeleteProductFail{Error: "e3"},
		} {
			before := loaded(widget)
			after := catalog.Reduce(before, a)
			require.NotSame(t, before, after)
			require.Equal(t, before.Products, after.Products)
			require.NotEmpty(t, after.Error)
		}
	})
}

func TestReduce_Replay(t *testing.T) {
	t.Parallel()

	root := store.Combine(catalog.Feature())
	actions := []store.Action{
		catalog.LoadSuccess{Products: []catalog.Product{widget, saw}},
		catalog.SetCurrentProduct{Product: saw},
		catalog.ToggleProductCode{Show: false},
		catalog.CreateProductSuccess{Product: hammer},
		catalog.DeleteProductSuccess{ID: 1},
		foreign{},
	}

	st := store.New(root)
	defer st.Dispose()
	for _, a := range actions {
		require.NoError(t, st.Dispatch(a))
	}

	replayed := store.Replay(root, store.Replay(root, nil, store.Init{}), actions...)

	got, _ := store.Get[*catalog.State](st.GetState(), catalog.FeatureKey)
	want, _ := store.Get[*catalog.State](replayed, catalog.FeatureKey)
	require.Equal(t, want, got)
	require.Equal(t, []catalog.Product{saw, hammer}, got.Products)
}
