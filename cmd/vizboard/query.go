package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/vizboard/internal/aggregate"
	"github.com/TobiSchelling/vizboard/internal/cache"
	"github.com/TobiSchelling/vizboard/internal/chart"
	"github.com/TobiSchelling/vizboard/internal/dashboard"
	"github.com/TobiSchelling/vizboard/internal/database"
	"github.com/TobiSchelling/vizboard/internal/dataset"
	"github.com/TobiSchelling/vizboard/internal/export"
	"github.com/TobiSchelling/vizboard/internal/filter"
)

// filterFlags are the repeatable dimension flags shared by query commands.
type filterFlags struct {
	topics, sectors, years, countries, pestles, swots []string
	defaults                                          bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.topics, "topic", nil, "Select topic (repeatable)")
	cmd.Flags().StringArrayVar(&f.sectors, "sector", nil, "Select sector (repeatable)")
	cmd.Flags().StringArrayVar(&f.years, "year", nil, "Select year (repeatable)")
	cmd.Flags().StringArrayVar(&f.countries, "country", nil, "Select country (repeatable)")
	cmd.Flags().StringArrayVar(&f.pestles, "pestle", nil, "Select PESTLE category (repeatable)")
	cmd.Flags().StringArrayVar(&f.swots, "swot", nil, "Select SWOT category (repeatable)")
	cmd.Flags().BoolVar(&f.defaults, "defaults", false, "Start from the first topic, sector and year")
}

// spec builds the selection. Explicit flags override the seeded defaults
// dimension by dimension.
func (f *filterFlags) spec(records []dataset.Record) filter.Spec {
	var spec filter.Spec
	if f.defaults {
		spec = filter.Default(records)
	}
	for dim, vals := range map[dataset.Field][]string{
		dataset.FieldTopic:   f.topics,
		dataset.FieldSector:  f.sectors,
		dataset.FieldYear:    f.years,
		dataset.FieldCountry: f.countries,
		dataset.FieldPestle:  f.pestles,
		dataset.FieldSwot:    f.swots,
	} {
		if len(vals) > 0 {
			spec, _ = spec.With(dim, vals)
		}
	}
	return spec
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "vizboard.db")
	return database.Open(dbPath)
}

// newDashboard builds the dashboard service over the stored snapshot.
func newDashboard(db *database.DB) (*dashboard.Service, func(), error) {
	c, err := cache.New(cfg.CacheOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("creating cache: %w", err)
	}
	dash := dashboard.New(dashboard.Options{
		Views:       cfg.Views(),
		Cache:       c,
		Preferences: db,
		Theme:       cfg.View.Theme,
	})

	records, err := db.LoadRecords()
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("loading records: %w", err)
	}
	dash.Reload(records)
	return dash, func() { c.Close() }, nil
}

// withDashboard opens the database and dashboard for a one-shot command.
func withDashboard(fn func(*dashboard.Service) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	dash, closeCache, err := newDashboard(db)
	if err != nil {
		return err
	}
	defer closeCache()

	if dash.Store().Len() == 0 {
		fmt.Fprintln(os.Stderr, "No records stored. Run 'vizboard refresh' first.")
	}
	return fn(dash)
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored snapshot and load history",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Snapshot:")
		fmt.Printf("  Records: %d\n", stats.Records)
		fmt.Println("\nLoad runs:")
		fmt.Printf("  Total: %d\n", stats.Runs)
		fmt.Printf("  Failed: %d\n", stats.FailedRuns)
		if last := stats.LastRun; last != nil {
			started := ""
			if last.StartedAt != nil {
				started = *last.StartedAt
			}
			fmt.Printf("  Last: %s (%s, %d records) at %s\n", last.ID, last.Status, last.RecordCount, started)
			if last.Error != nil {
				fmt.Printf("  Last error: %s\n", *last.Error)
			}
		}

		records, err := db.LoadRecords()
		if err != nil {
			return fmt.Errorf("loading records: %w", err)
		}
		fmt.Println("\nOptions:")
		for _, dim := range filter.Dimensions {
			fmt.Printf("  %s: %d\n", dim, len(filter.DeriveOptions(records, dim)))
		}
		return nil
	},
}

// --- options command ---

var optionsCmd = &cobra.Command{
	Use:   "options <dimension>",
	Short: "List the distinct values of a filter dimension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dim, err := filter.ParseDimension(args[0])
		if err != nil {
			return err
		}
		return withDashboard(func(dash *dashboard.Service) error {
			for _, opt := range dash.Options(dim) {
				if opt == "" {
					opt = "(none)"
				}
				fmt.Println(opt)
			}
			return nil
		})
	},
}

// --- buckets command ---

var (
	bucketFilter filterFlags
	bucketSum    string
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets <field>",
	Short: "Count records per value of a field, or sum a measure with --sum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(func(dash *dashboard.Service) error {
			spec := bucketFilter.spec(dash.Store().Records())
			buckets := dash.Buckets(spec, dataset.Field(args[0]), dataset.Field(bucketSum))
			printBuckets(buckets)
			return nil
		})
	},
}

func init() {
	bucketFilter.register(bucketsCmd)
	bucketsCmd.Flags().StringVar(&bucketSum, "sum", "", "Numeric field to sum instead of counting")
}

func printBuckets(buckets []aggregate.Bucket) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, b := range buckets {
		label := b.Label
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, dataset.Num(b.Value))
	}
	tw.Flush()
	fmt.Printf("\n%d buckets, total %s\n", len(buckets), dataset.Num(aggregate.Total(buckets)))
}

// --- chart command ---

var (
	chartFilter filterFlags
	chartReveal int
)

var chartCmd = &cobra.Command{
	Use:   "chart <view>",
	Short: "Print the visible series of a dashboard chart",
	Long:  "Print the visible series of a dashboard chart. Views: " + viewNames(),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(func(dash *dashboard.Service) error {
			spec := chartFilter.spec(dash.Store().Records())
			f, err := dash.Chart(cmd.Context(), args[0], spec, chartReveal)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n\n", f.Title, f.Kind)
			if f.Empty {
				fmt.Println("No data")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for i, c := range f.Series.Categories {
				if c == "" {
					c = "(none)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", c, dataset.Num(f.Series.Values[i]))
			}
			tw.Flush()
			fmt.Printf("\nShowing %d of %d\n", f.Series.Len(), f.Total)
			if f.HasMore {
				fmt.Printf("More: --reveal %d\n", f.Next())
			}
			return nil
		})
	},
}

func init() {
	chartFilter.register(chartCmd)
	chartCmd.Flags().IntVar(&chartReveal, "reveal", 0, "Number of points to reveal for paged views")
}

func viewNames() string {
	names := make([]string, 0, len(chart.DefaultViews))
	for _, v := range chart.DefaultViews {
		names = append(names, v.Name)
	}
	return strings.Join(names, ", ")
}

// --- export command ---

var (
	exportFilter filterFlags
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filtered records as CSV or PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(exportFormat)
		if format != "csv" && format != "pdf" {
			return fmt.Errorf("unsupported export format %q: want csv or pdf", exportFormat)
		}
		return withDashboard(func(dash *dashboard.Service) error {
			records := dash.Filter(exportFilter.spec(dash.Store().Records()))

			w := os.Stdout
			if exportOut != "" && exportOut != "-" {
				f, err := os.Create(exportOut)
				if err != nil {
					return fmt.Errorf("creating %s: %w", exportOut, err)
				}
				defer f.Close()
				w = f
			}

			var err error
			if format == "csv" {
				err = export.WriteCSV(w, records)
			} else {
				err = export.WritePDF(w, "Dashboard records", records)
			}
			if err != nil {
				return err
			}
			if w != os.Stdout {
				fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", len(records), exportOut)
			}
			return nil
		})
	},
}

func init() {
	exportFilter.register(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or pdf")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
}
