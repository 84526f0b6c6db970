package catalog

import "context"

// API is the product backend the effects talk to. Every call either returns
// a value or an error whose text is shown to the user.
type API interface {
	List(ctx context.Context) ([]Product, error)
	// Create assigns the id.
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	// Delete returns the id of the removed product.
	Delete(ctx context.Context, id int) (int, error)
}
