package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/MikeMC777/profitory/internal/confirm"
	"github.com/MikeMC777/profitory/internal/layout"
	"github.com/MikeMC777/profitory/internal/product"
	"github.com/MikeMC777/profitory/internal/stats"
	"github.com/MikeMC777/profitory/internal/storage"
	"github.com/MikeMC777/profitory/internal/table"
)

func init() {
	gin.DefaultWriter = io.Discard
}

//
// ===== test router wired like main =====
//

func newStore(t *testing.T, load bool) *product.Store {
	t.Helper()
	log, _ := test.NewNullLogger()
	s := product.NewStore(storage.NewMemorySlot(), "", log)
	if load {
		if err := s.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newRouter(store *product.Store) (*gin.Engine, *confirm.Challenges) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	wipes := confirm.New(0)
	registerRoutes(r, store, wipes, newLayoutState())
	return r, wipes
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, w.Body.String())
	}
}

const widget = `{"brand":"Acme","name":"Widget","price":19.99,"cost":5,"quantity":3,"condition":"New","category":"Tools"}`

//
// ===== TESTS =====
//

// POST /products computes profit (14.99 for the widget)
func TestCreateProduct_ComputesProfit(t *testing.T) {
	r, _ := newRouter(newStore(t, true))

	w := do(r, http.MethodPost, "/products", widget)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got product.Product
	decode(t, w, &got)
	if got.ID == "" || got.Profit.String() != "14.99" {
		t.Fatalf("unexpected product: %+v", got)
	}
}

func TestCreateProduct_Invalid(t *testing.T) {
	r, _ := newRouter(newStore(t, true))

	// missing brand and quantity
	{
		w := do(r, http.MethodPost, "/products", `{"name":"X","price":"1","cost":"1","condition":"New","category":"Tools"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
		}
		var got product.HTTPError
		decode(t, w, &got)
		if len(got.Fields) != 2 {
			t.Fatalf("expected 2 field errors, got %+v", got.Fields)
		}
	}

	// broken JSON
	{
		w := do(r, http.MethodPost, "/products", `{"brand":`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	}
}

// a batch with one bad element adds nothing
func TestCreateProduct_BatchIsAtomic(t *testing.T) {
	store := newStore(t, true)
	r, _ := newRouter(store)

	bad := `[` + widget + `,{"brand":"","name":"Y","price":1,"cost":0,"quantity":1,"condition":"New","category":"T"}]`
	w := do(r, http.MethodPost, "/products", bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
	if n := len(store.List()); n != 0 {
		t.Fatalf("store should be unchanged, has %d", n)
	}

	good := `[` + widget + `,` + widget + `]`
	w = do(r, http.MethodPost, "/products", good)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got product.ListResponse
	decode(t, w, &got)
	if got.Count != 2 {
		t.Fatalf("count=%d, expected 2", got.Count)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	store := newStore(t, true)
	created, err := store.Add(product.Input{Brand: "Acme", Name: "Widget", Quantity: 1, Condition: product.ConditionNew, Category: "Tools"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	id := created[0].ID
	r, _ := newRouter(store)

	// GET ok and 404
	{
		if w := do(r, http.MethodGet, "/products/"+id, ""); w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if w := do(r, http.MethodGet, "/products/nope", ""); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	}

	// PUT replaces and recomputes profit
	{
		body := `{"brand":"Acme","name":"Widget 2","price":"10","cost":"12.5","quantity":2,"condition":"Used - Good","category":"Tools"}`
		w := do(r, http.MethodPut, "/products/"+id, body)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got product.Product
		decode(t, w, &got)
		if got.ID != id || got.Name != "Widget 2" || got.Profit.String() != "-2.5" {
			t.Fatalf("update not applied: %+v", got)
		}
	}

	// PUT unknown id
	{
		w := do(r, http.MethodPut, "/products/nope", widget)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	}

	// DELETE ok then 404
	{
		if w := do(r, http.MethodDelete, "/products/"+id, ""); w.Code != http.StatusNoContent {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if w := do(r, http.MethodDelete, "/products/"+id, ""); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	}
}

func TestMutationsWhileLoading(t *testing.T) {
	r, _ := newRouter(newStore(t, false))

	if w := do(r, http.MethodGet, "/healthz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz expected 503, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/products", widget); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/products", ""); w.Code != http.StatusOK {
		t.Fatalf("reads stay available, got %d", w.Code)
	}
}

// quantity >=2 over [1,2,3], sorted by quantity desc
func TestView_FilterSortPaginate(t *testing.T) {
	store := newStore(t, true)
	for i, q := range []int{1, 2, 3} {
		_, err := store.Add(product.Input{
			Brand: string(rune('C' - i)), Name: "n", Price: decimalOf(t, "10"),
			Quantity: q, Condition: product.ConditionNew, Category: "c",
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	r, _ := newRouter(store)

	w := do(r, http.MethodGet, "/products/view?quantity=%3E%3D2&sort=quantity&dir=desc&per_page=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v table.View
	decode(t, w, &v)
	if v.Total != 2 || len(v.Rows) != 2 || v.Rows[0].Quantity != 3 || v.Rows[1].Quantity != 2 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Totals.Quantity != 5 || v.Totals.Price.String() != "50" {
		t.Fatalf("unexpected totals: %+v", v.Totals)
	}

	// bad inputs
	for _, q := range []string{"per_page=7", "dir=up", "sort=colour", "price=abc", "page=x"} {
		if w := do(r, http.MethodGet, "/products/view?"+q, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestWipe_RequiresChallenge(t *testing.T) {
	store := newStore(t, true)
	if _, err := store.Add(product.Input{Brand: "a", Name: "b", Quantity: 1, Condition: product.ConditionNew, Category: "c"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, _ := newRouter(store)

	w := do(r, http.MethodPost, "/products/wipe/challenge", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var ch confirm.Challenge
	decode(t, w, &ch)

	// wrong phrase ⇒ 403, nothing deleted
	{
		body, _ := json.Marshal(WipeRequest{ChallengeID: ch.ID, Phrase: "wrong"})
		if w := do(r, http.MethodDelete, "/products", string(body)); w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
		if len(store.List()) != 1 {
			t.Fatalf("store must be unchanged")
		}
	}

	// right phrase ⇒ 204, empty store
	{
		body, _ := json.Marshal(WipeRequest{ChallengeID: ch.ID, Phrase: " " + ch.Phrase + " "})
		if w := do(r, http.MethodDelete, "/products", string(body)); w.Code != http.StatusNoContent {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if len(store.List()) != 0 {
			t.Fatalf("store should be empty")
		}
	}

	// missing body ⇒ 400
	if w := do(r, http.MethodDelete, "/products", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

const csvHeader = "Brand,Name,Price,Quantity,Condition,Category,Cost\n"

func TestImport_RawAndMultipart(t *testing.T) {
	store := newStore(t, true)
	r, _ := newRouter(store)

	// raw body
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products/import",
			strings.NewReader(csvHeader+"Acme,Widget,$19.99,3,New,Tools,5\n,Nameless,1,1,New,Tools,1\n"))
		req.Header.Set("Content-Type", "text/csv")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got ImportResponse
		decode(t, w, &got)
		if got.Imported != 1 || len(got.Skipped) != 1 || got.Skipped[0] != 3 {
			t.Fatalf("unexpected import result: %+v", got)
		}
	}

	// multipart upload
	{
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "items.csv")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write([]byte(csvHeader + "Globex,Lamp,10,1,Refurbished,Home,4\n"))
		_ = mw.Close()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}

	if n := len(store.List()); n != 2 {
		t.Fatalf("expected 2 products, got %d", n)
	}
}

// missing Cost header rejects the whole file
func TestImport_MissingHeader(t *testing.T) {
	store := newStore(t, true)
	r, _ := newRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/import",
		strings.NewReader("Brand,Name,Price,Quantity,Condition,Category\nAcme,Widget,1,1,New,Tools\n"))
	req.Header.Set("Content-Type", "text/csv")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var got product.HTTPError
	decode(t, w, &got)
	if !strings.Contains(got.Error, "Cost") {
		t.Fatalf("error should name Cost: %q", got.Error)
	}
	if len(store.List()) != 0 {
		t.Fatalf("store must be unchanged")
	}
}

func TestExportAndClipboard(t *testing.T) {
	store := newStore(t, true)
	created, err := store.Add(product.Input{
		Brand: "Acme", Name: "Widget", Price: decimalOf(t, "19.99"), Cost: decimalOf(t, "5"),
		Quantity: 3, Condition: product.ConditionNew, Category: "Tools",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, _ := newRouter(store)

	// export with explicit fields
	{
		w := do(r, http.MethodGet, "/products/export.csv?fields=brand,price,profit", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment") {
			t.Fatalf("missing attachment header")
		}
		if got := w.Body.String(); got != "Brand,Price,Profit\nAcme,$19.99,$14.99\n" {
			t.Fatalf("unexpected csv: %q", got)
		}
	}

	// export defaults to layout columns
	{
		w := do(r, http.MethodGet, "/products/export.csv", "")
		firstLine := strings.SplitN(w.Body.String(), "\n", 2)[0]
		if firstLine != "Brand,Name,Cost,Price,Profit,Quantity,Condition,Category" {
			t.Fatalf("unexpected header: %q", firstLine)
		}
	}

	// clipboard
	{
		w := do(r, http.MethodGet, "/products/clipboard?fields=brand,quantity&ids="+created[0].ID, "")
		if w.Code != http.StatusOK || w.Body.String() != "Acme, 3" {
			t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
		}
		if w := do(r, http.MethodGet, "/products/clipboard?ids=nope", ""); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
		if w := do(r, http.MethodGet, "/products/clipboard?fields=colour", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	}
}

func TestStatsAndCharts(t *testing.T) {
	store := newStore(t, true)
	r, _ := newRouter(store)
	if w := do(r, http.MethodPost, "/products", widget); w.Code != http.StatusCreated {
		t.Fatalf("seed status=%d", w.Code)
	}

	w := do(r, http.MethodGet, "/stats", "")
	var s stats.Summary
	decode(t, w, &s)
	if s.TotalItems != 3 || s.TotalValue.String() != "59.97" {
		t.Fatalf("unexpected summary: %+v", s)
	}

	w = do(r, http.MethodGet, "/charts", "")
	var c stats.ChartData
	decode(t, w, &c)
	if len(c.ValueByCategory) != 1 || c.ValueByCategory[0].Label != "Tools" {
		t.Fatalf("unexpected charts: %+v", c)
	}
}

func TestLayoutRoutes(t *testing.T) {
	r, _ := newRouter(newStore(t, true))

	snap := func(w *httptest.ResponseRecorder) layout.Snapshot {
		t.Helper()
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var s layout.Snapshot
		decode(t, w, &s)
		return s
	}

	s := snap(do(r, http.MethodPost, "/layout/columns/cost/toggle", ""))
	if s.Hidden != 1 {
		t.Fatalf("hidden=%d, expected 1", s.Hidden)
	}

	s = snap(do(r, http.MethodPut, "/layout/pins/name", `{"side":"left"}`))
	if s.Columns[0] != product.FieldName {
		t.Fatalf("name should render first: %v", s.Columns)
	}

	s = snap(do(r, http.MethodPut, "/layout/widths/quantity", `{"width":9999}`))
	if s.Widths[product.FieldQuantity] != 160 {
		t.Fatalf("width not clamped: %v", s.Widths)
	}

	s = snap(do(r, http.MethodDelete, "/layout/pins/name", ""))
	if len(s.Left) != 0 {
		t.Fatalf("pin not removed: %v", s.Left)
	}

	s = snap(do(r, http.MethodPost, "/layout/reset", ""))
	if s.Hidden != 0 {
		t.Fatalf("reset should show every default column")
	}
	s = snap(do(r, http.MethodPost, "/layout/widths/reset", ""))
	if s.Widths[product.FieldQuantity] != 90 {
		t.Fatalf("widths not reset: %v", s.Widths)
	}

	if w := do(r, http.MethodPut, "/layout/pins/name", `{"side":"top"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/layout/columns/colour/toggle", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
