package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/shopspring/decimal"
)

// Keys the product codec owns. Anything else the inventory reports is kept in Extra.
const (
	fieldID     = "id"
	fieldTitle  = "title"
	fieldPrice  = "price"
	fieldImage  = "image"
	fieldAmount = "amount"
)

// Product is the inventory's view of a purchasable item.
type Product struct {
	ID    int
	Title string
	Price decimal.Decimal
	Image string
	// Extra holds attributes this service does not interpret. They round-trip unchanged.
	Extra map[string]json.RawMessage

	// absent marks typed keys the inventory did not send as a value of their type.
	// Such keys are left out on encode, or carried verbatim in Extra.
	absent fieldSet
}

type fieldSet uint8

const (
	hasNoTitle fieldSet = 1 << iota
	hasNoPrice
	hasNoImage
)

// Stock is the quantity the inventory reports as available for a product.
type Stock struct {
	ProductID int `json:"id"`
	Amount    int `json:"amount"`
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	if p.Extra != nil {
		extra := make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			extra[k] = bytes.Clone(v)
		}
		p.Extra = extra
	}
	return p
}

// MarshalJSON writes the product as a single flat object.
func (p Product) MarshalJSON() ([]byte, error) {
	fields, err := p.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads a flat product object. Unknown keys land in Extra.
func (p *Product) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	return p.fromFields(fields)
}

func (p Product) fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(p.Extra)+4)
	maps.Copy(fields, p.Extra)

	fields[fieldID] = json.RawMessage(strconv.Itoa(p.ID))
	if p.absent&hasNoTitle == 0 {
		title, err := json.Marshal(p.Title)
		if err != nil {
			return nil, err
		}
		fields[fieldTitle] = title
	}
	if p.absent&hasNoPrice == 0 {
		// Bare number, as the inventory sends it.
		fields[fieldPrice] = json.RawMessage(p.Price.String())
	}
	if p.absent&hasNoImage == 0 {
		image, err := json.Marshal(p.Image)
		if err != nil {
			return nil, err
		}
		fields[fieldImage] = image
	}
	return fields, nil
}

func (p *Product) fromFields(fields map[string]json.RawMessage) error {
	var out Product

	raw, ok := fields[fieldID]
	if !ok {
		return fmt.Errorf("product: missing %q", fieldID)
	}
	if err := json.Unmarshal(raw, &out.ID); err != nil {
		return fmt.Errorf("product: decode %q: %w", fieldID, err)
	}

	typed := map[string]bool{fieldID: true}
	if raw, ok := fields[fieldTitle]; ok && decodeString(raw, &out.Title) {
		typed[fieldTitle] = true
	} else {
		out.absent |= hasNoTitle
	}
	if raw, ok := fields[fieldPrice]; ok && decodeNumber(raw, &out.Price) {
		typed[fieldPrice] = true
	} else {
		out.absent |= hasNoPrice
	}
	if raw, ok := fields[fieldImage]; ok && decodeString(raw, &out.Image) {
		typed[fieldImage] = true
	} else {
		out.absent |= hasNoImage
	}

	for k, v := range fields {
		if typed[k] {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	*p = out
	return nil
}

// decodeString reports whether raw is a JSON string and stores it in dst.
func decodeString(raw json.RawMessage, dst *string) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// decodeNumber reports whether raw is a bare JSON number and stores it in dst.
func decodeNumber(raw json.RawMessage, dst *decimal.Decimal) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return false
	}
	return dst.UnmarshalJSON(raw) == nil
}
