package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/MikeMC777/profitory/internal/config"
)

type harness struct {
	cfg config.Config
	dir string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{
		dir: dir,
		cfg: config.Config{StorageDriver: "file", StorageDir: dir, StorageKey: "inventory.products"},
	}
}

// run executes one CLI invocation and returns what it printed.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	log, _ := test.NewNullLogger()
	app := newApp(h.cfg, log)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"inventoryctl"}, args...))
	return out.String(), err
}

func (h *harness) writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(h.dir, "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sampleCSV = "Brand,Name,Price,Quantity,Condition,Category,Cost\n" +
	"Acme,Widget,$19.99,3,New,Tools,5\n" +
	"Globex,Lamp,10,1,Used - Good,Home,12\n" +
	",Broken,1,1,New,Tools,1\n"

func TestImportListStats(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "import", h.writeCSV(t, sampleCSV))
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 products")
	assert.Contains(t, out, "skipped line 4")

	out, err = h.run(t, "", "list", "--filter", "quantity=>=2")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget")
	assert.NotContains(t, out, "Lamp")
	assert.Contains(t, out, "Showing 1 to 1 of 1")

	out, err = h.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total items")
	assert.Contains(t, out, "$69.97")
}

func TestImport_MissingHeader(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "import", h.writeCSV(t, "Brand,Name,Price,Quantity,Condition,Category\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cost")
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "import", h.writeCSV(t, sampleCSV))
	require.NoError(t, err)

	out, err := h.run(t, "", "export", "--fields", "brand,profit")
	require.NoError(t, err)
	assert.Equal(t, "Brand,Profit\nAcme,$14.99\nGlobex,-$2.00\n", out)

	path := filepath.Join(h.dir, "out.csv")
	_, err = h.run(t, "", "export", "--out", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "Brand,Name,Cost,Price,Profit"))
}

func TestWipe(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "import", h.writeCSV(t, sampleCSV))
	require.NoError(t, err)

	_, err = h.run(t, "nope\n", "wipe")
	require.Error(t, err)
	out, err := h.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "$69.97", "wrong phrase keeps data")

	log, _ := test.NewNullLogger()
	app := newApp(h.cfg, log)
	user := &promptAnswer{}
	app.Writer = user
	app.Reader = user
	require.NoError(t, app.Run([]string{"inventoryctl", "wipe"}))
	assert.Contains(t, user.out.String(), "all products deleted")

	out, err = h.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "of 0")
}

// promptAnswer plays a user who types back the quoted phrase from the prompt.
type promptAnswer struct {
	out bytes.Buffer
}

func (p *promptAnswer) Write(b []byte) (int, error) { return p.out.Write(b) }

func (p *promptAnswer) Read(b []byte) (int, error) {
	s := p.out.String()
	i, j := strings.Index(s, `"`), strings.LastIndex(s, `"`)
	if i < 0 || j <= i {
		return 0, io.EOF
	}
	return copy(b, s[i+1:j]+"\n"), io.EOF
}
