package predict

import (
	"strconv"
	"strings"
)

// CartItem is one line of a cart or purchase.
type CartItem struct {
	itemID   string
	price    float64
	quantity int
}

// NewCartItem creates an item. price is the total payable for the line,
// taking quantity and discounts into account.
func NewCartItem(itemID string, price float64, quantity int) CartItem {
	return CartItem{itemID: itemID, price: price, quantity: quantity}
}

func (c CartItem) ItemID() string { return c.itemID }
func (c CartItem) Price() float64 { return c.price }
func (c CartItem) Quantity() int { return c.quantity }

func (c CartItem) String() string {
	return "i:" + c.itemID + ",p:" + formatPrice(c.price) + ",q:" + strconv.Itoa(c.quantity)
}

// formatPrice prints prices the way the server has always received them:
// single precision, shortest form, with a trailing ".0" on whole numbers.
func formatPrice(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 32)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func joinItems(items []CartItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, "|")
}
