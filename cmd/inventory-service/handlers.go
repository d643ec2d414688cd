package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/MikeMC777/profitory/internal/confirm"
	"github.com/MikeMC777/profitory/internal/csvio"
	"github.com/MikeMC777/profitory/internal/layout"
	"github.com/MikeMC777/profitory/internal/product"
	"github.com/MikeMC777/profitory/internal/stats"
	"github.com/MikeMC777/profitory/internal/table"
)

// layoutState guards the single column layout shared by all clients.
type layoutState struct {
	mu sync.Mutex
	l  *layout.Layout
}

func newLayoutState() *layoutState { return &layoutState{l: layout.New()} }

// update applies fn and returns the resulting snapshot.
func (s *layoutState) update(fn func(l *layout.Layout) error) (layout.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.l); err != nil {
		return layout.Snapshot{}, err
	}
	return s.l.Snapshot(), nil
}

func (s *layoutState) columns() []product.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.Columns()
}

// WipeRequest confirms a delete-all with the phrase of an issued challenge.
// swagger:model
type WipeRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Phrase      string `json:"phrase"       binding:"required"`
}

// ImportResponse reports a CSV import.
// swagger:model
type ImportResponse struct {
	Imported int               `json:"imported"`
	Skipped  []int             `json:"skipped"`
	Items    []product.Product `json:"items"`
}

type pinRequest struct {
	Side string `json:"side" binding:"required"`
}

type widthRequest struct {
	Width int `json:"width" binding:"required"`
}

func registerRoutes(r *gin.Engine, store *product.Store, wipes *confirm.Challenges, lay *layoutState) {
	r.GET("/healthz", healthHandler(store))

	r.GET("/products", listProductsHandler(store))
	r.GET("/products/view", viewHandler(store))
	r.GET("/products/export.csv", exportHandler(store, lay))
	r.GET("/products/clipboard", clipboardHandler(store, lay))
	r.GET("/products/:id", getProductHandler(store))
	r.POST("/products", createProductHandler(store))
	r.POST("/products/import", importHandler(store))
	r.PUT("/products/:id", updateProductHandler(store))
	r.DELETE("/products/:id", deleteProductHandler(store))
	r.POST("/products/wipe/challenge", wipeChallengeHandler(wipes))
	r.DELETE("/products", wipeHandler(store, wipes))

	r.GET("/stats", statsHandler(store))
	r.GET("/charts", chartsHandler(store))

	r.GET("/layout", layoutHandler(lay, func(*layout.Layout) error { return nil }))
	r.POST("/layout/reset", layoutHandler(lay, func(l *layout.Layout) error { l.Reset(); return nil }))
	r.POST("/layout/widths/reset", layoutHandler(lay, func(l *layout.Layout) error { l.ResetWidths(); return nil }))
	r.POST("/layout/columns/:field/toggle", toggleColumnHandler(lay))
	r.PUT("/layout/pins/:field", pinHandler(lay))
	r.DELETE("/layout/pins/:field", unpinHandler(lay))
	r.PUT("/layout/widths/:field", widthHandler(lay))
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	var verr *product.ValidationError
	var missing *csvio.MissingHeadersError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, product.HTTPError{Error: err.Error(), Fields: verr.Fields})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, product.HTTPError{Error: err.Error()})
	case errors.Is(err, product.ErrNotFound):
		c.JSON(http.StatusNotFound, product.HTTPError{Error: err.Error()})
	case errors.Is(err, product.ErrLoading):
		c.JSON(http.StatusServiceUnavailable, product.HTTPError{Error: err.Error()})
	case errors.Is(err, confirm.ErrUnknownChallenge),
		errors.Is(err, confirm.ErrExpired),
		errors.Is(err, confirm.ErrMismatch):
		c.JSON(http.StatusForbidden, product.HTTPError{Error: err.Error()})
	case errors.Is(err, csvio.ErrUnreadable),
		errors.Is(err, table.ErrFilterKind),
		errors.Is(err, table.ErrOperator),
		errors.Is(err, table.ErrFilterValue),
		errors.Is(err, table.ErrDirection),
		errors.Is(err, table.ErrPageSize),
		errors.Is(err, layout.ErrUnknownColumn),
		errors.Is(err, layout.ErrSide),
		errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, product.HTTPError{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, product.HTTPError{Error: "internal error"})
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

// healthHandler reports whether the inventory finished loading.
// @Summary Liveness and load state
// @Router /healthz [get]
func healthHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store.Loading() {
			c.String(http.StatusServiceUnavailable, "loading")
			return
		}
		c.String(http.StatusOK, "ok")
	}
}

// @Summary List all products
// @Produce json
// @Success 200 {object} product.ListResponse
// @Router /products [get]
func listProductsHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		items := store.List()
		c.JSON(http.StatusOK, product.ListResponse{Items: items, Count: len(items)})
	}
}

// @Summary Get product by id
// @Param id path string true "Product ID"
// @Success 200 {object} product.Product
// @Failure 404 {object} product.HTTPError
// @Router /products/{id} [get]
func getProductHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := store.Get(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler accepts a single product or an array of them. A batch
// is applied only if every element is valid.
// @Summary Create one product or a batch
// @Accept json
// @Param body body product.Input true "Product"
// @Success 201 {object} product.Product
// @Failure 400 {object} product.HTTPError
// @Router /products [post]
func createProductHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, badRequest("read body: %v", err))
			return
		}
		raw = bytes.TrimSpace(raw)

		if bytes.HasPrefix(raw, []byte("[")) {
			var inputs []product.Input
			if err := json.Unmarshal(raw, &inputs); err != nil {
				writeError(c, badRequest("invalid JSON: %v", err))
				return
			}
			created, err := store.Add(inputs...)
			if err != nil {
				var verr *product.ValidationError
				if errors.As(err, &verr) {
					c.JSON(http.StatusBadRequest, product.HTTPError{
						Error:  fmt.Sprintf("item %d: %s", verr.Index, verr.Error()),
						Fields: verr.Fields,
					})
					return
				}
				writeError(c, err)
				return
			}
			c.JSON(http.StatusCreated, product.ListResponse{Items: created, Count: len(created)})
			return
		}

		var in product.Input
		if err := json.Unmarshal(raw, &in); err != nil {
			writeError(c, badRequest("invalid JSON: %v", err))
			return
		}
		created, err := store.Add(in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created[0])
	}
}

// updateProductHandler replaces every editable field of a product.
// @Summary Replace a product
// @Param id path string true "Product ID"
// @Param body body product.Input true "Product"
// @Success 200 {object} product.Product
// @Failure 400 {object} product.HTTPError
// @Failure 404 {object} product.HTTPError
// @Router /products/{id} [put]
func updateProductHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, badRequest("invalid JSON: %v", err))
			return
		}
		p, err := store.Edit(c.Param("id"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary Delete a product
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} product.HTTPError
// @Router /products/{id} [delete]
func deleteProductHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Remove(c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary Issue a delete-all challenge phrase
// @Success 201 {object} confirm.Challenge
// @Router /products/wipe/challenge [post]
func wipeChallengeHandler(wipes *confirm.Challenges) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, err := wipes.Issue()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ch)
	}
}

// wipeHandler deletes every product once the challenge phrase is confirmed.
// @Summary Delete every product
// @Param body body WipeRequest true "Challenge confirmation"
// @Success 204
// @Failure 403 {object} product.HTTPError
// @Router /products [delete]
func wipeHandler(store *product.Store, wipes *confirm.Challenges) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, badRequest("challenge_id and phrase are required"))
			return
		}
		// a challenge must not be spent on a request that cannot be applied
		if store.Loading() {
			writeError(c, product.ErrLoading)
			return
		}
		if err := wipes.Verify(req.ChallengeID, req.Phrase); err != nil {
			writeError(c, err)
			return
		}
		if err := store.RemoveAll(); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// viewState reads the table settings from the query string: page, per_page,
// sort, dir and one filter per field name.
func viewState(c *gin.Context) (table.State, error) {
	st := table.NewState()

	if raw := c.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return st, badRequest("per_page must be a number")
		}
		if err := st.SetPerPage(n); err != nil {
			return st, err
		}
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return st, badRequest("page must be a number")
		}
		st.Page = n
	}
	if raw := c.Query("sort"); raw != "" {
		f, ok := product.ParseField(raw)
		if !ok {
			return st, badRequest("unknown sort column %q", raw)
		}
		st.Sort.Key = f
	}
	dir, err := table.ParseDirection(c.Query("dir"))
	if err != nil {
		return st, err
	}
	st.Sort.Direction = dir

	for _, f := range product.Fields {
		raw, ok := c.GetQuery(string(f))
		if !ok {
			continue
		}
		flt, err := table.ParseFilter(f, raw)
		if err != nil {
			return st, err
		}
		if err := st.Filters.Set(f, flt); err != nil {
			return st, err
		}
	}
	return st, nil
}

// parseFields reads a comma separated column list, falling back to def.
func parseFields(raw string, def []product.Field) ([]product.Field, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	var out []product.Field
	for _, part := range strings.Split(raw, ",") {
		f, ok := product.ParseField(part)
		if !ok {
			return nil, badRequest("unknown field %q", strings.TrimSpace(part))
		}
		out = append(out, f)
	}
	return out, nil
}

// viewHandler returns one page of the filtered and sorted table together with
// the totals of that page.
// @Summary Filtered, sorted and paginated table view
// @Param page query int false "Page (1-based)"
// @Param per_page query int false "Rows per page" Enums(5,10,20,50,100)
// @Param sort query string false "Sort column"
// @Param dir query string false "Sort direction" Enums(asc,desc)
// @Success 200 {object} table.View
// @Failure 400 {object} product.HTTPError
// @Router /products/view [get]
func viewHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := viewState(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st.Compute(store.List()))
	}
}

// exportHandler streams every product matching the view filters, in view
// order, as a CSV attachment.
// @Summary Export products as CSV
// @Produce text/csv
// @Param fields query string false "Comma separated columns"
// @Router /products/export.csv [get]
func exportHandler(store *product.Store, lay *layoutState) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := viewState(c)
		if err != nil {
			writeError(c, err)
			return
		}
		fields, err := parseFields(c.Query("fields"), lay.columns())
		if err != nil {
			writeError(c, err)
			return
		}
		rows := st.Sort.Apply(table.Filter(store.List(), st.Filters))

		var buf bytes.Buffer
		if err := csvio.Export(&buf, rows, fields); err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="inventory.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}

// @Summary Products as clipboard text
// @Produce plain
// @Param fields query string false "Comma separated columns"
// @Param ids query string false "Comma separated product ids"
// @Router /products/clipboard [get]
func clipboardHandler(store *product.Store, lay *layoutState) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields, err := parseFields(c.Query("fields"), lay.columns())
		if err != nil {
			writeError(c, err)
			return
		}
		items := store.List()
		if raw := strings.TrimSpace(c.Query("ids")); raw != "" {
			items = items[:0:0]
			for _, id := range strings.Split(raw, ",") {
				p, err := store.Get(strings.TrimSpace(id))
				if err != nil {
					writeError(c, errors.Wrap(err, strings.TrimSpace(id)))
					return
				}
				items = append(items, p)
			}
		}
		c.String(http.StatusOK, csvio.Clipboard(items, fields))
	}
}

// importHandler accepts a multipart upload in "file" or a raw CSV body. A
// file with missing headers is rejected as a whole.
// @Summary Import products from CSV
// @Accept multipart/form-data
// @Param file formData file false "CSV file"
// @Success 201 {object} ImportResponse
// @Failure 400 {object} product.HTTPError
// @Router /products/import [post]
func importHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store.Loading() {
			writeError(c, product.ErrLoading)
			return
		}
		var src io.Reader = c.Request.Body
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			fh, err := c.FormFile("file")
			if err != nil {
				writeError(c, badRequest("file is required"))
				return
			}
			f, err := fh.Open()
			if err != nil {
				writeError(c, errors.Wrap(csvio.ErrUnreadable, err.Error()))
				return
			}
			defer f.Close()
			src = f
		}

		res, err := csvio.Import(src)
		if err != nil {
			writeError(c, err)
			return
		}
		created, err := store.Add(res.Inputs...)
		if err != nil {
			writeError(c, err)
			return
		}
		skipped := res.Skipped
		if skipped == nil {
			skipped = []int{}
		}
		c.JSON(http.StatusCreated, ImportResponse{Imported: len(created), Skipped: skipped, Items: created})
	}
}

// @Summary Inventory summary
// @Success 200 {object} stats.Summary
// @Router /stats [get]
func statsHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Summarize(store.List()))
	}
}

// @Summary Chart series
// @Success 200 {object} stats.ChartData
// @Router /charts [get]
func chartsHandler(store *product.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Charts(store.List()))
	}
}

func layoutHandler(lay *layoutState, fn func(l *layout.Layout) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := lay.update(fn)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func fieldParam(c *gin.Context) (product.Field, error) {
	f, ok := product.ParseField(c.Param("field"))
	if !ok {
		return "", errors.Wrapf(layout.ErrUnknownColumn, "%q", c.Param("field"))
	}
	return f, nil
}

func toggleColumnHandler(lay *layoutState) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := fieldParam(c)
		if err != nil {
			writeError(c, err)
			return
		}
		layoutHandler(lay, func(l *layout.Layout) error { return l.Toggle(f) })(c)
	}
}

func pinHandler(lay *layoutState) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := fieldParam(c)
		if err != nil {
			writeError(c, err)
			return
		}
		var req pinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, badRequest("side is required"))
			return
		}
		side, err := layout.ParseSide(req.Side)
		if err != nil {
			writeError(c, err)
			return
		}
		layoutHandler(lay, func(l *layout.Layout) error { return l.Pin(f, side) })(c)
	}
}

func unpinHandler(lay *layoutState) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := fieldParam(c)
		if err != nil {
			writeError(c, err)
			return
		}
		layoutHandler(lay, func(l *layout.Layout) error { l.Unpin(f); return nil })(c)
	}
}

func widthHandler(lay *layoutState) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := fieldParam(c)
		if err != nil {
			writeError(c, err)
			return
		}
		var req widthRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, badRequest("width is required"))
			return
		}
		layoutHandler(lay, func(l *layout.Layout) error {
			_, err := l.SetWidth(f, req.Width)
			return err
		})(c)
	}
}
