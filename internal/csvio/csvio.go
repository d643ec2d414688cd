// Package csvio converts between product lists and the CSV and plain-text
// formats used for bulk import, export and copying.
package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/MikeMC777/profitory/internal/product"
)

var ErrUnreadable = errors.New("csv file could not be read")

// Required are the import headers, in the order they are reported.
var Required = []product.Field{
	product.FieldBrand,
	product.FieldName,
	product.FieldPrice,
	product.FieldQuantity,
	product.FieldCondition,
	product.FieldCategory,
	product.FieldCost,
}

// MissingHeadersError rejects a whole import.
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Result is a parsed import. Skipped holds the 1-based line numbers of rows
// that were still invalid after defaults were applied.
type Result struct {
	Inputs  []product.Input
	Skipped []int
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Trim(strings.TrimSpace(h), `"'`)
	return strings.ToLower(strings.TrimSpace(h))
}

// Import reads a CSV with a header row. Nothing is returned unless every
// required header is present.
func Import(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, errors.Wrap(ErrUnreadable, "file is empty")
	}
	if err != nil {
		return Result{}, errors.Wrap(ErrUnreadable, err.Error())
	}

	cols := map[product.Field]int{}
	for i, h := range header {
		if f, ok := product.ParseField(normalizeHeader(h)); ok {
			if _, seen := cols[f]; !seen {
				cols[f] = i
			}
		}
	}
	var missing []string
	for _, f := range Required {
		if _, ok := cols[f]; !ok {
			missing = append(missing, f.Title())
		}
	}
	if len(missing) > 0 {
		return Result{}, &MissingHeadersError{Missing: missing}
	}

	res := Result{Inputs: []product.Input{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, errors.Wrap(ErrUnreadable, err.Error())
		}
		line, _ := cr.FieldPos(0)
		cell := func(f product.Field) string {
			if i := cols[f]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		in := rowInput(cell)
		if in.Validate() != nil {
			res.Skipped = append(res.Skipped, line)
			continue
		}
		res.Inputs = append(res.Inputs, in)
	}
	return res, nil
}

func rowInput(cell func(product.Field) string) product.Input {
	qty, err := strconv.Atoi(cell(product.FieldQuantity))
	if err != nil || qty < 1 {
		qty = 1
	}
	cond, _ := product.ParseCondition(cell(product.FieldCondition))
	return product.Input{
		Brand:     cell(product.FieldBrand),
		Name:      cell(product.FieldName),
		Price:     ParseMoney(cell(product.FieldPrice)),
		Quantity:  qty,
		Condition: cond,
		Category:  cell(product.FieldCategory),
		Cost:      ParseMoney(cell(product.FieldCost)),
	}
}

// Export writes a header of capitalized field names followed by one row per
// product. Fields default to every product field.
func Export(w io.Writer, products []product.Product, fields []product.Field) error {
	if len(fields) == 0 {
		fields = product.Fields
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Title()
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	row := make([]string, len(fields))
	for _, p := range products {
		for i, f := range fields {
			row[i] = Cell(p, f)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write %s", p.ID)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Clipboard renders products for pasting: no header, values joined by ", ",
// one product per line. A single field is joined into one line.
func Clipboard(products []product.Product, fields []product.Field) string {
	if len(fields) == 0 {
		fields = product.Fields
	}
	if len(fields) == 1 {
		vals := make([]string, len(products))
		for i, p := range products {
			vals[i] = Cell(p, fields[0])
		}
		return strings.Join(vals, ", ")
	}
	lines := make([]string, len(products))
	for i, p := range products {
		vals := make([]string, len(fields))
		for j, f := range fields {
			vals[j] = Cell(p, f)
		}
		lines[i] = strings.Join(vals, ", ")
	}
	return strings.Join(lines, "\n")
}
