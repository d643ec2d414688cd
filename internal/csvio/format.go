package csvio

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MikeMC777/profitory/internal/product"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as US dollars with two decimals and
// thousands grouping, e.g. $1,234.50 or -$5.00.
func FormatCurrency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	f, _ := d.Float64()
	return sign + "$" + printer.Sprintf("%.2f", f)
}

// ParseMoney strips currency symbols and grouping before parsing. Anything
// unparseable is zero.
func ParseMoney(s string) decimal.Decimal {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Cell is the exported text of one field: money as currency, everything else
// as shown in the table.
func Cell(p product.Product, f product.Field) string {
	if f.Money() {
		v, _ := p.Number(f)
		return FormatCurrency(v)
	}
	return p.Text(f)
}
