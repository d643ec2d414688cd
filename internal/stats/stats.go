// Package stats aggregates the whole inventory for the dashboard cards and
// charts.
package stats

import (
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/profitory/internal/product"
)

// Summary is the dashboard card data.
// swagger:model
type Summary struct {
	TotalItems   int             `json:"total_items"`
	TotalValue   decimal.Decimal `json:"total_value"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Categories   int             `json:"categories"`
}

func Summarize(products []product.Product) Summary {
	s := Summary{
		TotalValue:   decimal.Zero,
		TotalCost:    decimal.Zero,
		TotalProfit:  decimal.Zero,
		AveragePrice: decimal.Zero,
	}
	cats := map[string]struct{}{}
	for _, p := range products {
		s.TotalItems += p.Quantity
		s.TotalValue = s.TotalValue.Add(p.LineTotal(product.FieldPrice))
		s.TotalCost = s.TotalCost.Add(p.LineTotal(product.FieldCost))
		s.TotalProfit = s.TotalProfit.Add(p.LineTotal(product.FieldProfit))
		cats[p.Category] = struct{}{}
	}
	if s.TotalItems > 0 {
		s.AveragePrice = s.TotalValue.Div(decimal.NewFromInt(int64(s.TotalItems))).Round(2)
	}
	s.Categories = len(cats)
	return s
}

// Point is one bar of a chart.
type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// ChartData holds every chart series.
// swagger:model
type ChartData struct {
	ValueByCategory     []Point `json:"value_by_category"`
	QuantityByCondition []Point `json:"quantity_by_condition"`
}

// Charts groups stock value by category and quantity by condition. Labels
// keep the order in which they first appear.
func Charts(products []product.Product) ChartData {
	byCategory := newSeries()
	byCondition := newSeries()
	for _, p := range products {
		byCategory.add(p.Category, p.LineTotal(product.FieldPrice))
		byCondition.add(string(p.Condition), decimal.NewFromInt(int64(p.Quantity)))
	}
	return ChartData{
		ValueByCategory:     byCategory.points,
		QuantityByCondition: byCondition.points,
	}
}

type series struct {
	index  map[string]int
	points []Point
}

func newSeries() *series {
	return &series{index: map[string]int{}, points: []Point{}}
}

func (s *series) add(label string, v decimal.Decimal) {
	i, ok := s.index[label]
	if !ok {
		i = len(s.points)
		s.index[label] = i
		s.points = append(s.points, Point{Label: label, Value: decimal.Zero})
	}
	s.points[i].Value = s.points[i].Value.Add(v)
}
