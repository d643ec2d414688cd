package table

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/profitory/internal/product"
)

var (
	ErrFilterKind  = errors.New("range filter on a non-numeric column")
	ErrOperator    = errors.New("unknown comparison operator")
	ErrFilterValue = errors.New("filter value is not a number")
)

// Op is a numeric comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Filter is a predicate over one column of a product. The concrete variants
// are TextFilter, RangeFilter and NoFilter.
type Filter interface {
	Match(p product.Product, f product.Field) bool
	active() bool
}

// TextFilter matches when the column's text contains Value, ignoring case.
type TextFilter struct {
	Value string `json:"value"`
}

func (t TextFilter) Match(p product.Product, f product.Field) bool {
	return strings.Contains(strings.ToLower(p.Text(f)), strings.ToLower(t.Value))
}

func (t TextFilter) active() bool { return t.Value != "" }

// RangeFilter compares a numeric column against Value.
type RangeFilter struct {
	Op    Op              `json:"operator"`
	Value decimal.Decimal `json:"value"`
}

func (r RangeFilter) Match(p product.Product, f product.Field) bool {
	v, ok := p.Number(f)
	if !ok {
		return false
	}
	c := v.Cmp(r.Value)
	switch r.Op {
	case OpEq:
		return c == 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return true
}

func (r RangeFilter) active() bool { return true }

// NoFilter matches everything.
type NoFilter struct{}

func (NoFilter) Match(product.Product, product.Field) bool { return true }
func (NoFilter) active() bool                              { return false }

// Filters holds at most one active filter per column.
type Filters map[product.Field]Filter

// Set installs flt for the column. A nil, NoFilter or empty text filter
// clears the column.
func (fs Filters) Set(f product.Field, flt Filter) error {
	if flt == nil || !flt.active() {
		delete(fs, f)
		return nil
	}
	if r, ok := flt.(RangeFilter); ok {
		if !f.Numeric() {
			return errors.Wrapf(ErrFilterKind, "column %s", f)
		}
		if !r.Op.valid() {
			return errors.Wrapf(ErrOperator, "%q", r.Op)
		}
	}
	fs[f] = flt
	return nil
}

// Match reports whether p satisfies every active filter.
func (fs Filters) Match(p product.Product) bool {
	for f, flt := range fs {
		if !flt.Match(p, f) {
			return false
		}
	}
	return true
}

// ParseFilter builds a filter from its query-string form. Numeric columns take
// an optional operator prefix (">=2", "<10.5"); a bare number means "=".
// Currency symbols and thousands separators are ignored. Text columns use the
// raw value as a substring. An empty value yields NoFilter.
func ParseFilter(f product.Field, raw string) (Filter, error) {
	if strings.TrimSpace(raw) == "" {
		return NoFilter{}, nil
	}
	if !f.Numeric() {
		return TextFilter{Value: raw}, nil
	}

	s := strings.TrimSpace(raw)
	op := OpEq
	for _, candidate := range []Op{OpGte, OpLte, OpGt, OpLt, OpEq} {
		if strings.HasPrefix(s, string(candidate)) {
			op = candidate
			s = strings.TrimSpace(strings.TrimPrefix(s, string(candidate)))
			break
		}
	}
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrFilterValue, "%s=%q", f, raw)
	}
	return RangeFilter{Op: op, Value: v}, nil
}
