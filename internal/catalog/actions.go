package catalog

import "github.com/dmitrymomot/apm/pkg/store"

// Action kinds of the catalog feature.
const (
	KindToggleProductCode        store.Kind = "[Product] Toggle Product Code"
	KindSetCurrentProduct        store.Kind = "[Product] Set Current Product"
	KindClearCurrentProduct      store.Kind = "[Product] Clear Current Product"
	KindInitializeCurrentProduct store.Kind = "[Product] Initialize Current Product"
	KindSetListFilter            store.Kind = "[Product] Set List Filter"
	KindLoad                     store.Kind = "[Product] Load"
	KindLoadSuccess              store.Kind = "[Product] Load Success"
	KindLoadFail                 store.Kind = "[Product] Load Fail"
	KindUpdateProduct            store.Kind = "[Product] Update Product"
	KindUpdateProductSuccess     store.Kind = "[Product] Update Product Success"
	KindUpdateProductFail        store.Kind = "[Product] Update Product Fail"
	KindCreateProduct            store.Kind = "[Product] Create Product"
	KindCreateProductSuccess     store.Kind = "[Product] Create Product Success"
	KindCreateProductFail        store.Kind = "[Product] Create Product Fail"
	KindDeleteProduct            store.Kind = "[Product] Delete Product"
	KindDeleteProductSuccess     store.Kind = "[Product] Delete Product Success"
	KindDeleteProductFail        store.Kind = "[Product] Delete Product Fail"
)

// Action is the closed set of catalog actions.
//
// InitializeCurrentProduct starts editing a new, unsaved product: the current
// id becomes NewProductID. Load, UpdateProduct, CreateProduct and DeleteProduct
// only trigger effects; their Success and Fail counterparts carry the result.
type Action interface {
	store.Action
	catalogAction()
}

type (
	ToggleProductCode        struct{ Show bool }
	SetCurrentProduct        struct{ Product Product }
	ClearCurrentProduct      struct{}
	InitializeCurrentProduct struct{}
	SetListFilter            struct{ Filter string }

	Load        struct{}
	LoadSuccess struct{ Products []Product }
	LoadFail    struct{ Error string }

	UpdateProduct        struct{ Product Product }
	UpdateProductSuccess struct{ Product Product }
	UpdateProductFail    struct{ Error string }

	CreateProduct        struct{ Product Product }
	CreateProductSuccess struct{ Product Product }
	CreateProductFail    struct{ Error string }

	DeleteProduct        struct{ ID int }
	DeleteProductSuccess struct{ ID int }
	DeleteProductFail    struct{ Error string }
)

func (ToggleProductCode) Kind() store.Kind        { return KindToggleProductCode }
func (SetCurrentProduct) Kind() store.Kind        { return KindSetCurrentProduct }
func (ClearCurrentProduct) Kind() store.Kind      { return KindClearCurrentProduct }
func (InitializeCurrentProduct) Kind() store.Kind { return KindInitializeCurrentProduct }
func (SetListFilter) Kind() store.Kind            { return KindSetListFilter }
func (Load) Kind() store.Kind                     { return KindLoad }
func (LoadSuccess) Kind() store.Kind              { return KindLoadSuccess }
func (LoadFail) Kind() store.Kind                 { return KindLoadFail }
func (UpdateProduct) Kind() store.Kind            { return KindUpdateProduct }
func (UpdateProductSuccess) Kind() store.Kind     { return KindUpdateProductSuccess }
func (UpdateProductFail) Kind() store.Kind        { return KindUpdateProductFail }
func (CreateProduct) Kind() store.Kind            { return KindCreateProduct }
func (CreateProductSuccess) Kind() store.Kind     { return KindCreateProductSuccess }
func (CreateProductFail) Kind() store.Kind        { return KindCreateProductFail }
func (DeleteProduct) Kind() store.Kind            { return KindDeleteProduct }
func (DeleteProductSuccess) Kind() store.Kind     { return KindDeleteProductSuccess }
func (DeleteProductFail) Kind() store.Kind        { return KindDeleteProductFail }

func (ToggleProductCode) catalogAction()        {}
func (SetCurrentProduct) catalogAction()        {}
func (ClearCurrentProduct) catalogAction()      {}
func (InitializeCurrentProduct) catalogAction() {}
func (SetListFilter) catalogAction()            {}
func (Load) catalogAction()                     {}
func (LoadSuccess) catalogAction()              {}
func (LoadFail) catalogAction()                 {}
func (UpdateProduct) catalogAction()            {}
func (UpdateProductSuccess) catalogAction()     {}
func (UpdateProductFail) catalogAction()        {}
func (CreateProduct) catalogAction()            {}
func (CreateProductSuccess) catalogAction()     {}
func (CreateProductFail) catalogAction()        {}
func (DeleteProduct) catalogAction()            {}
func (DeleteProductSuccess) catalogAction()     {}
func (DeleteProductFail) catalogAction()        {}
