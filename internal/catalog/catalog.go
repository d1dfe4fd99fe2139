package catalog

import (
	"errors"

	"github.com/xaenox/return-analyzer/internal/models"
)

var ErrUnknownProduct = errors.New("unknown product")

const imageParams = "?ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D&auto=format&fit=crop&w=400&h=400&q=80"

// Catalog is an immutable ordered list of products
type Catalog struct {
	products []models.Product
}

func New(products []models.Product) *Catalog {
	cp := make([]models.Product, len(products))
	copy(cp, products)
	return &Catalog{products: cp}
}

// Default returns the showcase collection
func Default() *Catalog {
	return New([]models.Product{
		{Name: "Wireless Headphones", ImageURL: "https://images.unsplash.com/photo-1505740420928-5e560c06d30e" + imageParams, Price: "₹5,999"},
		{Name: "Smart Watch", ImageURL: "https://images.unsplash.com/photo-1523275335684-37898b6baf30" + imageParams, Price: "₹12,499"},
		{Name: "Leather Wallet", ImageURL: "https://images.unsplash.com/photo-1591561954555-607968c989ab" + imageParams, Price: "₹1,299"},
		{Name: "Running Shoes", ImageURL: "https://images.unsplash.com/photo-1542291026-7eec264c27ff" + imageParams, Price: "₹3,499"},
		{Name: "Cotton T-Shirt", ImageURL: "https://images.unsplash.com/photo-1576566588028-4147f3842f27" + imageParams, Price: "₹799"},
		{Name: "Laptop Backpack", ImageURL: "https://images.unsplash.com/photo-1553062407-98eeb64c6a62" + imageParams, Price: "₹2,199"},
	})
}

// All returns a copy of the products in display order
func (c *Catalog) All() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Get returns the product at index i
func (c *Catalog) Get(i int) (models.Product, error) {
	if i < 0 || i >= len(c.products) {
		return models.Product{}, ErrUnknownProduct
	}
	return c.products[i], nil
}
