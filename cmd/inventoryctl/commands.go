package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/MikeMC777/profitory/internal/config"
	"github.com/MikeMC777/profitory/internal/confirm"
	"github.com/MikeMC777/profitory/internal/csvio"
	"github.com/MikeMC777/profitory/internal/layout"
	"github.com/MikeMC777/profitory/internal/product"
	"github.com/MikeMC777/profitory/internal/stats"
	"github.com/MikeMC777/profitory/internal/storage"
	"github.com/MikeMC777/profitory/internal/table"
)

func newApp(cfg config.Config, log logrus.FieldLogger) *cli.App {
	return &cli.App{
		Name:  "inventoryctl",
		Usage: "inspect and maintain the resale inventory",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print one page of the inventory table",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "per-page", Value: table.DefaultPageSize},
					&cli.StringFlag{Name: "sort", Value: string(table.DefaultSort.Key)},
					&cli.BoolFlag{Name: "desc"},
					&cli.StringSliceFlag{Name: "filter", Usage: "field=value, e.g. quantity=>=2 or brand=acme"},
				},
				Action: func(c *cli.Context) error {
					return withStore(c.Context, cfg, log, func(s *product.Store) error {
						return listCmd(c, s)
					})
				},
			},
			{
				Name:      "import",
				Usage:     "append products from a CSV file",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("import needs exactly one FILE", 2)
					}
					return withStore(c.Context, cfg, log, func(s *product.Store) error {
						return importCmd(c, s, c.Args().First())
					})
				},
			},
			{
				Name:  "export",
				Usage: "write the inventory as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "fields", Usage: "comma separated columns"},
					&cli.StringFlag{Name: "out", Usage: "output file, stdout when empty"},
				},
				Action: func(c *cli.Context) error {
					return withStore(c.Context, cfg, log, func(s *product.Store) error {
						return exportCmd(c, s)
					})
				},
			},
			{
				Name:  "stats",
				Usage: "print inventory totals",
				Action: func(c *cli.Context) error {
					return withStore(c.Context, cfg, log, func(s *product.Store) error {
						return statsCmd(c, s)
					})
				},
			},
			{
				Name:  "wipe",
				Usage: "delete every product after typing a confirmation phrase",
				Action: func(c *cli.Context) error {
					return withStore(c.Context, cfg, log, func(s *product.Store) error {
						return wipeCmd(c, s, confirm.New(cfg.WipeTTL))
					})
				},
			},
			{
				Name:  "migrate",
				Usage: "create the Postgres slot table",
				Action: func(c *cli.Context) error {
					if err := storage.Migrate(cfg.PostgresDSN); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "migrations applied")
					return nil
				},
			},
		},
	}
}

// withStore opens and loads the configured store, runs fn and waits for the
// resulting writes to land.
func withStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger, fn func(*product.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	slot, closeSlot, err := storage.Open(ctx, cfg.Storage())
	if err != nil {
		return err
	}
	defer closeSlot()

	s := product.NewStore(slot, cfg.StorageKey, log)
	if err := s.Load(ctx); err != nil {
		return err
	}
	runErr := fn(s)

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Close(cctx); err != nil && runErr == nil {
		return errors.Wrap(err, "flush inventory")
	}
	return runErr
}

func parseFields(raw string) ([]product.Field, error) {
	if strings.TrimSpace(raw) == "" {
		return layout.DefaultColumns, nil
	}
	var out []product.Field
	for _, part := range strings.Split(raw, ",") {
		f, ok := product.ParseField(part)
		if !ok {
			return nil, errors.Errorf("unknown field %q", strings.TrimSpace(part))
		}
		out = append(out, f)
	}
	return out, nil
}

func listCmd(c *cli.Context, s *product.Store) error {
	st := table.NewState()
	if err := st.SetPerPage(c.Int("per-page")); err != nil {
		return err
	}
	st.Page = c.Int("page")

	key, ok := product.ParseField(c.String("sort"))
	if !ok {
		return errors.Errorf("unknown sort column %q", c.String("sort"))
	}
	st.Sort = table.Sort{Key: key, Direction: table.Asc}
	if c.Bool("desc") {
		st.Sort.Direction = table.Desc
	}

	for _, raw := range c.StringSlice("filter") {
		name, value, found := strings.Cut(raw, "=")
		f, ok := product.ParseField(name)
		if !found || !ok {
			return errors.Errorf("filter %q must look like field=value", raw)
		}
		flt, err := table.ParseFilter(f, value)
		if err != nil {
			return err
		}
		if err := st.Filters.Set(f, flt); err != nil {
			return err
		}
	}

	v := st.Compute(s.List())
	cols := layout.DefaultColumns

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	header := make([]string, len(cols))
	for i, f := range cols {
		header[i] = strings.ToUpper(string(f))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, p := range v.Rows {
		row := make([]string, len(cols))
		for i, f := range cols {
			row[i] = csvio.Cell(p, f)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	totals := make([]string, len(cols))
	for i, f := range cols {
		switch f {
		case product.FieldQuantity:
			totals[i] = fmt.Sprint(v.Totals.Quantity)
		case product.FieldPrice:
			totals[i] = csvio.FormatCurrency(v.Totals.Price)
		case product.FieldCost:
			totals[i] = csvio.FormatCurrency(v.Totals.Cost)
		case product.FieldProfit:
			totals[i] = csvio.FormatCurrency(v.Totals.Profit)
		}
	}
	totals[0] = "TOTAL"
	fmt.Fprintln(tw, strings.Join(totals, "\t"))
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.App.Writer, "Showing %d to %d of %d (page %d of %d)\n", v.From, v.To, v.Total, v.Page, v.TotalPages)
	return err
}

func importCmd(c *cli.Context, s *product.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(csvio.ErrUnreadable, err.Error())
	}
	defer f.Close()

	res, err := csvio.Import(f)
	if err != nil {
		return err
	}
	created, err := s.Add(res.Inputs...)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "imported %d products\n", len(created))
	for _, line := range res.Skipped {
		fmt.Fprintf(c.App.Writer, "skipped line %d\n", line)
	}
	return nil
}

func exportCmd(c *cli.Context, s *product.Store) error {
	fields, err := parseFields(c.String("fields"))
	if err != nil {
		return err
	}
	var w io.Writer = c.App.Writer
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "create %s", out)
		}
		defer f.Close()
		w = f
	}
	return csvio.Export(w, table.DefaultSort.Apply(s.List()), fields)
}

func statsCmd(c *cli.Context, s *product.Store) error {
	sum := stats.Summarize(s.List())
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total items\t%d\n", sum.TotalItems)
	fmt.Fprintf(tw, "Total value\t%s\n", csvio.FormatCurrency(sum.TotalValue))
	fmt.Fprintf(tw, "Total cost\t%s\n", csvio.FormatCurrency(sum.TotalCost))
	fmt.Fprintf(tw, "Total profit\t%s\n", csvio.FormatCurrency(sum.TotalProfit))
	fmt.Fprintf(tw, "Average price\t%s\n", csvio.FormatCurrency(sum.AveragePrice))
	fmt.Fprintf(tw, "Categories\t%d\n", sum.Categories)
	return tw.Flush()
}

func wipeCmd(c *cli.Context, s *product.Store, wipes *confirm.Challenges) error {
	ch, err := wipes.Issue()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "This deletes all %d products. Type %q to confirm: ", len(s.List()), ch.Phrase)

	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "read confirmation")
	}
	if err := wipes.Verify(ch.ID, line); err != nil {
		return cli.Exit("phrase did not match, nothing deleted", 1)
	}
	if err := s.RemoveAll(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "all products deleted")
	return nil
}
