// Package table derives the rows and footer totals of the inventory table
// from the product list and the user's filter, sort and page settings.
package table

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/profitory/internal/product"
)

// PageSizes are the selectable rows-per-page values.
var PageSizes = []int{5, 10, 20, 50, 100}

const DefaultPageSize = 10

var ErrPageSize = errors.New("unsupported page size")

// State is the user's current view settings.
type State struct {
	Filters Filters
	Sort    Sort
	Page    int
	PerPage int
}

func NewState() State {
	return State{
		Filters: Filters{},
		Sort:    DefaultSort,
		Page:    1,
		PerPage: DefaultPageSize,
	}
}

// SetPerPage changes the page size and goes back to the first page.
func (s *State) SetPerPage(n int) error {
	for _, v := range PageSizes {
		if v == n {
			s.PerPage = n
			s.Page = 1
			return nil
		}
	}
	return errors.Wrapf(ErrPageSize, "%d", n)
}

// SetPage moves to page n, clamped to [1, totalPages].
func (s *State) SetPage(n, totalPages int) {
	s.Page = clamp(n, 1, max(totalPages, 1))
}

func (s *State) NextPage(totalPages int) { s.SetPage(s.Page+1, totalPages) }
func (s *State) PrevPage(totalPages int) { s.SetPage(s.Page-1, totalPages) }

func (s *State) ToggleSort(f product.Field) { s.Sort = s.Sort.Toggle(f) }

// Totals are the footer sums of the rows on the current page. Money columns
// sum line totals (value × quantity).
type Totals struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Profit   decimal.Decimal `json:"profit"`
}

// View is the render-ready result of Compute.
type View struct {
	Rows       []product.Product `json:"rows"`
	Sort       Sort              `json:"sort"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
	Total      int               `json:"total"`
	From       int               `json:"from"`
	To         int               `json:"to"`
	HasPrev    bool              `json:"has_prev"`
	HasNext    bool              `json:"has_next"`
	Totals     Totals            `json:"totals"`
}

// Filter keeps the products matching every active filter, in input order.
func Filter(items []product.Product, fs Filters) []product.Product {
	out := make([]product.Product, 0, len(items))
	for _, p := range items {
		if fs.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// TotalPages is ceil(n/perPage), at least 1.
func TotalPages(n, perPage int) int {
	if perPage <= 0 || n == 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}

// Paginate returns the rows of page (1-based) after clamping it into range,
// together with the page actually used.
func Paginate(items []product.Product, page, perPage int) ([]product.Product, int) {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	page = clamp(page, 1, TotalPages(len(items), perPage))
	start := (page - 1) * perPage
	end := min(start+perPage, len(items))
	return items[start:end], page
}

// Sum computes the footer totals over rows.
func Sum(rows []product.Product) Totals {
	t := Totals{Price: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}
	for _, p := range rows {
		t.Quantity += p.Quantity
		t.Price = t.Price.Add(p.LineTotal(product.FieldPrice))
		t.Cost = t.Cost.Add(p.LineTotal(product.FieldCost))
		t.Profit = t.Profit.Add(p.LineTotal(product.FieldProfit))
	}
	return t
}

// Compute runs filter, sort, paginate and aggregate. Totals cover only the
// rows of the returned page.
func (s State) Compute(items []product.Product) View {
	perPage := s.PerPage
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	sorted := s.Sort.Apply(Filter(items, s.Filters))
	rows, page := Paginate(sorted, s.Page, perPage)
	total := len(sorted)
	pages := TotalPages(total, perPage)

	v := View{
		Rows:       rows,
		Sort:       s.Sort,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < pages,
		Totals:     Sum(rows),
	}
	if total > 0 {
		v.From = (page-1)*perPage + 1
		v.To = v.From + len(rows) - 1
	}
	return v
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
