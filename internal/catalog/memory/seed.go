package memory

import "github.com/dmitrymomot/apm/internal/catalog"

// Seed returns the demo catalog. Each call returns a fresh slice.
func Seed() []catalog.Product {
	return []catalog.Product{
		{
			ID:          1,
			Name:        "Leaf Rake",
			Code:        "GDN-0011",
			Description: "Leaf rake with 48-inch wooden handle.",
			StarRating:  3.2,
			Price:       19.95,
		},
		{
			ID:          2,
			Name:        "Garden Cart",
			Code:        "GDN-0023",
			Description: "15 gallon capacity rolling garden cart.",
			StarRating:  4.2,
			Price:       32.99,
		},
		{
			ID:          5,
			Name:        "Hammer",
			Code:        "TBX-0048",
			Description: "Curved claw steel hammer.",
			StarRating:  4.8,
			Price:       8.9,
		},
		{
			ID:          8,
			Name:        "Saw",
			Code:        "TBX-0022",
			Description: "15-inch steel blade hand saw.",
			StarRating:  3.7,
			Price:       11.55,
		},
		{
			ID:          10,
			Name:        "Video Game Controller",
			Code:        "GMG-0042",
			Description: "Standard two-button video game controller.",
			StarRating:  4.6,
			Price:       35.95,
		},
	}
}
