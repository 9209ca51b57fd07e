package domain

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
)

// CartLine is one product in the cart with the quantity requested.
type CartLine struct {
	Product
	Amount int
}

// MarshalJSON writes the line flat: product fields plus "amount".
func (l CartLine) MarshalJSON() ([]byte, error) {
	fields, err := l.Product.fields()
	if err != nil {
		return nil, err
	}
	fields[fieldAmount] = json.RawMessage(fmt.Sprintf("%d", l.Amount))
	return json.Marshal(fields)
}

// UnmarshalJSON reads a flat line object.
func (l *CartLine) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var amount int
	if raw, ok := fields[fieldAmount]; ok {
		if err := json.Unmarshal(raw, &amount); err != nil {
			return fmt.Errorf("cart line: decode %q: %w", fieldAmount, err)
		}
		delete(fields, fieldAmount)
	}

	var p Product
	if err := p.fromFields(fields); err != nil {
		return err
	}
	*l = CartLine{Product: p, Amount: amount}
	return nil
}

// Cart is the ordered list of lines, oldest first. Product IDs are unique.
type Cart []CartLine

// Find returns the index of the line for productID.
func (c Cart) Find(productID int) (int, bool) {
	for i := range c {
		if c[i].ID == productID {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy that shares nothing with c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for i, l := range c {
		out[i] = CartLine{Product: l.Product.Clone(), Amount: l.Amount}
	}
	return out
}

// WithAmount returns a copy of c with the line for productID set to amount.
// The second result is false when no such line exists.
func (c Cart) WithAmount(productID, amount int) (Cart, bool) {
	i, ok := c.Find(productID)
	if !ok {
		return c.Clone(), false
	}
	out := c.Clone()
	out[i].Amount = amount
	return out, true
}

// Without returns a copy of c minus the line for productID, order preserved.
func (c Cart) Without(productID int) (Cart, bool) {
	out := make(Cart, 0, len(c))
	found := false
	for _, l := range c {
		if l.ID == productID {
			found = true
			continue
		}
		out = append(out, CartLine{Product: l.Product.Clone(), Amount: l.Amount})
	}
	return out, found
}

// Append returns a copy of c with line added at the end.
func (c Cart) Append(line CartLine) Cart {
	out := make(Cart, len(c), len(c)+1)
	copy(out, c.Clone())
	return append(out, CartLine{Product: line.Product.Clone(), Amount: line.Amount})
}

// ItemCount returns the total number of units across all lines.
func (c Cart) ItemCount() int {
	var n int
	for _, l := range c {
		n += l.Amount
	}
	return n
}

// Validate checks the cart invariants: unique product IDs and amounts of at least one.
func (c Cart) Validate() error {
	seen := make(map[int]struct{}, len(c))
	for _, l := range c {
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("%w: duplicate product %d in cart", apperrors.ErrInvalidInput, l.ID)
		}
		seen[l.ID] = struct{}{}
		if l.Amount < 1 {
			return fmt.Errorf("%w: product %d has amount %d", apperrors.ErrInvalidInput, l.ID, l.Amount)
		}
	}
	return nil
}
