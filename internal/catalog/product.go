package catalog

import (
	"strconv"
)

// NewProductID identifies a product that is being created and has no
// server-assigned id yet.
const NewProductID = 0

// Product is a catalog entry.
type Product struct {
	ID          int     `json:"id" validate:"gte=0"`
	Name        string  `json:"productName" validate:"required,min=3,max=50"`
	Code        string  `json:"productCode" validate:"required,product_code"`
	Description string  `json:"description" validate:"max=4000"`
	StarRating  float64 `json:"starRating" validate:"gte=0,lte=5"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// BlankProduct is the form model shown while a new product is being edited.
func BlankProduct() Product {
	return Product{ID: NewProductID, Code: "New"}
}

// NullID is an optional product id.
type NullID struct {
	ID    int
	Valid bool
}

// IDOf returns a present NullID.
func IDOf(id int) NullID {
	return NullID{ID: id, Valid: true}
}

// IsNew reports whether the id is the NewProductID sentinel.
func (n NullID) IsNew() bool {
	return n.Valid && n.ID == NewProductID
}

// MarshalJSON encodes an absent id as null.
func (n NullID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(n.ID), 10), nil
}

// UnmarshalJSON accepts null or a number.
func (n *NullID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullID{}
		return nil
	}
	id, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*n = IDOf(id)
	return nil
}
