// Package layout tracks the presentational state of the inventory table:
// which columns are shown, which are pinned to an edge and how wide each is.
// It never influences which rows are shown.
package layout

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/MikeMC777/profitory/internal/product"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrSide          = errors.New("pin side must be left or right")
)

type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Left, Right:
		return Side(s), nil
	}
	return "", errors.Wrapf(ErrSide, "%q", s)
}

// Bounds are the width limits of a column, in pixels.
type Bounds struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// DefaultColumns is the initial visible column order.
var DefaultColumns = []product.Field{
	product.FieldBrand,
	product.FieldName,
	product.FieldCost,
	product.FieldPrice,
	product.FieldProfit,
	product.FieldQuantity,
	product.FieldCondition,
	product.FieldCategory,
}

var DefaultBounds = map[product.Field]Bounds{
	product.FieldID:        {Min: 80, Max: 320, Default: 120},
	product.FieldBrand:     {Min: 80, Max: 300, Default: 150},
	product.FieldName:      {Min: 120, Max: 480, Default: 220},
	product.FieldCost:      {Min: 80, Max: 200, Default: 110},
	product.FieldPrice:     {Min: 80, Max: 200, Default: 110},
	product.FieldProfit:    {Min: 80, Max: 200, Default: 110},
	product.FieldQuantity:  {Min: 60, Max: 160, Default: 90},
	product.FieldCondition: {Min: 100, Max: 260, Default: 150},
	product.FieldCategory:  {Min: 100, Max: 300, Default: 150},
}

// Layout is the column layout of one table. The zero value is not usable;
// call New.
type Layout struct {
	visible []product.Field
	left    []product.Field
	right   []product.Field
	widths  map[product.Field]int
}

func New() *Layout {
	return &Layout{
		visible: slices.Clone(DefaultColumns),
		widths:  map[product.Field]int{},
	}
}

func known(f product.Field) error {
	if _, ok := DefaultBounds[f]; !ok {
		return errors.Wrapf(ErrUnknownColumn, "%q", f)
	}
	return nil
}

// Toggle shows a hidden column at the end of the order, or hides a shown one.
func (l *Layout) Toggle(f product.Field) error {
	if err := known(f); err != nil {
		return err
	}
	if i := slices.Index(l.visible, f); i >= 0 {
		l.visible = slices.Delete(l.visible, i, i+1)
		return nil
	}
	l.visible = append(l.visible, f)
	return nil
}

// Reset restores the default visible columns. Pins and widths are kept.
func (l *Layout) Reset() {
	l.visible = slices.Clone(DefaultColumns)
}

func (l *Layout) Visible(f product.Field) bool {
	return slices.Contains(l.visible, f)
}

// Hidden counts default columns that are currently not shown.
func (l *Layout) Hidden() int {
	n := 0
	for _, f := range DefaultColumns {
		if !l.Visible(f) {
			n++
		}
	}
	return n
}

// Pin fixes a column to one edge, removing any pin on the other edge.
func (l *Layout) Pin(f product.Field, side Side) error {
	if err := known(f); err != nil {
		return err
	}
	if _, err := ParseSide(string(side)); err != nil {
		return err
	}
	l.Unpin(f)
	if side == Left {
		l.left = append(l.left, f)
	} else {
		l.right = append(l.right, f)
	}
	return nil
}

func (l *Layout) Unpin(f product.Field) {
	l.left = slices.DeleteFunc(l.left, func(c product.Field) bool { return c == f })
	l.right = slices.DeleteFunc(l.right, func(c product.Field) bool { return c == f })
}

// PinnedSide reports the edge a column is pinned to.
func (l *Layout) PinnedSide(f product.Field) (Side, bool) {
	switch {
	case slices.Contains(l.left, f):
		return Left, true
	case slices.Contains(l.right, f):
		return Right, true
	}
	return "", false
}

// SetWidth stores the column width clamped to its bounds and returns it.
func (l *Layout) SetWidth(f product.Field, w int) (int, error) {
	if err := known(f); err != nil {
		return 0, err
	}
	b := DefaultBounds[f]
	w = max(b.Min, min(w, b.Max))
	l.widths[f] = w
	return w, nil
}

func (l *Layout) Width(f product.Field) int {
	if w, ok := l.widths[f]; ok {
		return w
	}
	return DefaultBounds[f].Default
}

func (l *Layout) ResetWidths() {
	clear(l.widths)
}

// Columns is the render order: left pins in pin order, then the unpinned
// visible columns in toggle order, then right pins. Hidden columns are
// skipped even when pinned.
func (l *Layout) Columns() []product.Field {
	out := make([]product.Field, 0, len(l.visible))
	for _, f := range l.left {
		if l.Visible(f) {
			out = append(out, f)
		}
	}
	for _, f := range l.visible {
		if _, pinned := l.PinnedSide(f); !pinned {
			out = append(out, f)
		}
	}
	for _, f := range l.right {
		if l.Visible(f) {
			out = append(out, f)
		}
	}
	return out
}

// PinnedOffset is the distance from the pinned edge to the column: the sum of
// the widths of visible columns pinned to the same edge and rendered between
// the edge and it. Unpinned columns have offset 0.
func (l *Layout) PinnedOffset(f product.Field) int {
	var stack []product.Field
	switch side, ok := l.PinnedSide(f); {
	case !ok:
		return 0
	case side == Left:
		stack = l.left
	default:
		stack = slices.Clone(l.right)
		slices.Reverse(stack)
	}
	offset := 0
	for _, c := range stack {
		if c == f {
			break
		}
		if l.Visible(c) {
			offset += l.Width(c)
		}
	}
	return offset
}

// Snapshot is the JSON form of a layout.
type Snapshot struct {
	Visible []product.Field       `json:"visible"`
	Left    []product.Field       `json:"pinned_left"`
	Right   []product.Field       `json:"pinned_right"`
	Widths  map[product.Field]int `json:"widths"`
	Columns []product.Field       `json:"columns"`
	Hidden  int                   `json:"hidden"`
}

func (l *Layout) Snapshot() Snapshot {
	widths := make(map[product.Field]int, len(l.visible))
	for _, f := range l.visible {
		widths[f] = l.Width(f)
	}
	return Snapshot{
		Visible: slices.Clone(l.visible),
		Left:    append([]product.Field{}, l.left...),
		Right:   append([]product.Field{}, l.right...),
		Widths:  widths,
		Columns: l.Columns(),
		Hidden:  l.Hidden(),
	}
}
