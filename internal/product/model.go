package product

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Condition is the resale grade of an item.
type Condition string

const (
	ConditionNew            Condition = "New"
	ConditionRefurbished    Condition = "Refurbished"
	ConditionUsedLikeNew    Condition = "Used - Like New"
	ConditionUsedGood       Condition = "Used - Good"
	ConditionUsedAcceptable Condition = "Used - Acceptable"
)

// Conditions lists every valid condition; the first one is the default.
var Conditions = []Condition{
	ConditionNew,
	ConditionRefurbished,
	ConditionUsedLikeNew,
	ConditionUsedGood,
	ConditionUsedAcceptable,
}

func (c Condition) Valid() bool {
	for _, v := range Conditions {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCondition matches s case-insensitively against Conditions.
func ParseCondition(s string) (Condition, bool) {
	s = strings.TrimSpace(s)
	for _, v := range Conditions {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	return Conditions[0], false
}

// Product is one inventory line. Profit is derived from Price and Cost and is
// recomputed by the Store on every create, edit and load.
type Product struct {
	ID        string          `json:"id"`
	Brand     string          `json:"brand"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Condition Condition       `json:"condition"`
	Category  string          `json:"category"`
	Cost      decimal.Decimal `json:"cost"`
	Profit    decimal.Decimal `json:"profit"`
}

// Input carries the editable fields of a product.
// swagger:model ProductInput
type Input struct {
	Brand     string          `json:"brand"     example:"Acme"`
	Name      string          `json:"name"      example:"Widget"`
	Price     decimal.Decimal `json:"price"     example:"19.99"`
	Quantity  int             `json:"quantity"  example:"3"`
	Condition Condition       `json:"condition" example:"New"`
	Category  string          `json:"category"  example:"Tools"`
	Cost      decimal.Decimal `json:"cost"      example:"5.00"`
}

func (in Input) normalized() Input {
	in.Brand = strings.TrimSpace(in.Brand)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	return in
}

// Validate reports every invalid field at once.
func (in Input) Validate() error {
	in = in.normalized()
	var errs []FieldError
	if in.Brand == "" {
		errs = append(errs, FieldError{Field: "brand", Message: "Brand is required"})
	}
	if in.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name is required"})
	}
	if in.Price.IsNegative() {
		errs = append(errs, FieldError{Field: "price", Message: "Price must be positive"})
	}
	if in.Quantity < 1 {
		errs = append(errs, FieldError{Field: "quantity", Message: "Quantity must be at least 1"})
	}
	if !in.Condition.Valid() {
		errs = append(errs, FieldError{Field: "condition", Message: "Condition must be one of the known grades"})
	}
	if in.Category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "Category is required"})
	}
	if in.Cost.IsNegative() {
		errs = append(errs, FieldError{Field: "cost", Message: "Cost must be positive"})
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (in Input) toProduct(id string) Product {
	in = in.normalized()
	return Product{
		ID:        id,
		Brand:     in.Brand,
		Name:      in.Name,
		Price:     in.Price,
		Quantity:  in.Quantity,
		Condition: in.Condition,
		Category:  in.Category,
		Cost:      in.Cost,
		Profit:    in.Price.Sub(in.Cost),
	}
}

// Input returns the editable part of p.
func (p Product) Input() Input {
	return Input{
		Brand:     p.Brand,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  p.Quantity,
		Condition: p.Condition,
		Category:  p.Category,
		Cost:      p.Cost,
	}
}

// LineTotal is the value of field multiplied by the quantity on hand.
// Quantity itself is returned unmultiplied.
func (p Product) LineTotal(f Field) decimal.Decimal {
	v, ok := p.Number(f)
	if !ok {
		return decimal.Zero
	}
	if f == FieldQuantity {
		return v
	}
	return v.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Field names a product column.
type Field string

const (
	FieldID        Field = "id"
	FieldBrand     Field = "brand"
	FieldName      Field = "name"
	FieldPrice     Field = "price"
	FieldQuantity  Field = "quantity"
	FieldCondition Field = "condition"
	FieldCategory  Field = "category"
	FieldCost      Field = "cost"
	FieldProfit    Field = "profit"
)

// Fields is every product field in record order.
var Fields = []Field{
	FieldID, FieldBrand, FieldName, FieldPrice, FieldQuantity,
	FieldCondition, FieldCategory, FieldCost, FieldProfit,
}

// ParseField accepts a field name in any case.
func ParseField(s string) (Field, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Numeric reports whether the field holds a number.
func (f Field) Numeric() bool {
	switch f {
	case FieldPrice, FieldCost, FieldProfit, FieldQuantity:
		return true
	}
	return false
}

// Money reports whether the field is a currency amount.
func (f Field) Money() bool {
	return f == FieldPrice || f == FieldCost || f == FieldProfit
}

// Title is the capitalized field name used for CSV headers.
func (f Field) Title() string {
	if f == "" {
		return ""
	}
	return strings.ToUpper(string(f[:1])) + string(f[1:])
}

// Text is the string form of a field, as shown in a table cell.
func (p Product) Text(f Field) string {
	switch f {
	case FieldID:
		return p.ID
	case FieldBrand:
		return p.Brand
	case FieldName:
		return p.Name
	case FieldCondition:
		return string(p.Condition)
	case FieldCategory:
		return p.Category
	case FieldQuantity:
		return strconv.Itoa(p.Quantity)
	case FieldPrice:
		return p.Price.String()
	case FieldCost:
		return p.Cost.String()
	case FieldProfit:
		return p.Profit.String()
	}
	return ""
}

// Number returns the value of a numeric field.
func (p Product) Number(f Field) (decimal.Decimal, bool) {
	switch f {
	case FieldPrice:
		return p.Price, true
	case FieldCost:
		return p.Cost, true
	case FieldProfit:
		return p.Profit, true
	case FieldQuantity:
		return decimal.NewFromInt(int64(p.Quantity)), true
	}
	return decimal.Zero, false
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: product not found
	Error string `json:"error"`
	// Per-field validation messages, when the request body was invalid
	Fields []FieldError `json:"fields,omitempty"`
}

// ListResponse is the unpaginated product list.
// swagger:model
type ListResponse struct {
	Items []Product `json:"items"`
	Count int       `json:"count"`
}
