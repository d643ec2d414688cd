package table

import (
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/MikeMC777/profitory/internal/product"
)

var ErrDirection = errors.New("sort direction must be asc or desc")

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc or desc in any case; empty means asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", errors.Wrapf(ErrDirection, "%q", s)
}

// Sort is a single-column sort order.
type Sort struct {
	Key       product.Field `json:"key"`
	Direction Direction     `json:"direction"`
}

// DefaultSort orders by brand, ascending.
var DefaultSort = Sort{Key: product.FieldBrand, Direction: Asc}

// Toggle returns the sort after a click on the column header: the same key
// flips asc to desc, anything else starts at asc.
func (s Sort) Toggle(f product.Field) Sort {
	if s.Key == f && s.Direction == Asc {
		return Sort{Key: f, Direction: Desc}
	}
	return Sort{Key: f, Direction: Asc}
}

// Apply returns a stably sorted copy of items. Numeric columns compare by
// value, everything else compares byte-wise.
func (s Sort) Apply(items []product.Product) []product.Product {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b product.Product) int {
		c := compare(a, b, s.Key)
		if s.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}

func compare(a, b product.Product, f product.Field) int {
	if f.Numeric() {
		av, _ := a.Number(f)
		bv, _ := b.Number(f)
		return av.Cmp(bv)
	}
	return strings.Compare(a.Text(f), b.Text(f))
}
