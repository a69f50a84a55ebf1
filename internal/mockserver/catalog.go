package mockserver

import (
	"strconv"
	"time"
)

// Product is one catalog record.
type Product struct {
	ID         string    `json:"item" yaml:"item"`
	Title      string    `json:"title" yaml:"title"`
	Category   string    `json:"category" yaml:"category"`
	Brand      string    `json:"brand" yaml:"brand"`
	Tags       string    `json:"tags" yaml:"tags"`
	Price      float64   `json:"price" yaml:"price"`
	Popularity float64   `json:"popularity" yaml:"popularity"`
	Available  bool      `json:"available" yaml:"available"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// schema is the column order of the products table in responses.
var schema = []string{"item", "title", "category", "brand", "tags", "price", "available"}

// Field returns a catalog column as the string filters compare against.
func (p Product) Field(name string) (string, bool) {
	switch name {
	case "item":
		return p.ID, true
	case "title":
		return p.Title, true
	case "category":
		return p.Category, true
	case "brand":
		return p.Brand, true
	case "tags":
		return p.Tags, true
	case "price":
		return strconv.FormatFloat(p.Price, 'f', -1, 64), true
	case "available":
		return strconv.FormatBool(p.Available), true
	}
	return "", false
}

func (p Product) row() []string {
	out := make([]string, len(schema))
	for i, col := range schema {
		out[i], _ = p.Field(col)
	}
	return out
}

// Catalog indexes products by item id.
type Catalog struct {
	products []Product
	byID     map[string]int
}

func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: append([]Product(nil), products...),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// All returns the products in catalog order.
func (c *Catalog) All() []Product {
	return append([]Product(nil), c.products...)
}
