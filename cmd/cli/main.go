package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"solar-logger/internal/analysis"
	"solar-logger/internal/config"
	"solar-logger/internal/ledger"
	"solar-logger/internal/logging"
	"solar-logger/internal/model"
	"solar-logger/internal/recovery"
	"solar-logger/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compute":
		err = cmdCompute(os.Args[2:])
	case "add":
		err = cmdAdd(os.Args[2:])
	case "delete":
		err = cmdDelete(os.Args[2:])
	case "import":
		err = cmdImport(os.Args[2:])
	case "export":
		err = cmdExport(os.Args[2:])
	case "template":
		err = cmdTemplate(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli compute  --date 2024-07-21 River2=50 River3=60-12 Delta3=75 EB3A=40+10")
	fmt.Println("  cli add      --date 2024-07-21 River2=50 River3=60-12")
	fmt.Println("  cli delete   --date 2024-07-21")
	fmt.Println("  cli import   --in records.csv")
	fmt.Println("  cli export   --out results/records.csv   (use .xlsx for a spreadsheet)")
	fmt.Println("  cli template --out template.csv")
	fmt.Println("  cli stats    --range 30d")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - every command accepts --config (default $CONFIG_FILE)")
	fmt.Println("  - inputs are a percentage or one operation, e.g. 70-10")
}

// env bundles what every subcommand needs.
type env struct {
	cfg      *config.Config
	stations []model.StationConfig
	logger   *slog.Logger
}

func commonFlags(fs *flag.FlagSet) *string {
	return fs.String("config", config.PathFromEnv(), "Path to YAML config")
}

func loadEnv(cfgPath string) (*env, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	stations, err := cfg.ModelStations()
	if err != nil {
		return nil, err
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := logging.New(os.Stderr, logging.Options{Level: level, Env: cfg.Env, Dev: cfg.IsDev()})
	return &env{cfg: cfg, stations: stations, logger: logger}, nil
}

// openBook loads the configured store into a Book. The returned func
// closes the store.
func (e *env) openBook(ctx context.Context) (*ledger.Book, func(), error) {
	provider, err := store.Open(ctx, e.cfg.Store.Driver, e.cfg.Store.Path, e.logger)
	if err != nil {
		return nil, nil, err
	}
	book := ledger.NewBook(ledger.New(e.stations), provider, e.logger)
	if err := book.Load(ctx); err != nil {
		_ = provider.Close()
		return nil, nil, err
	}
	return book, func() { _ = provider.Close() }, nil
}

// parseInputs reads positional Station=value arguments.
func parseInputs(args []string) (map[model.StationID]string, error) {
	out := make(map[model.StationID]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("expected Station=value, got %q", a)
		}
		id, err := model.ParseStationID(k)
		if err != nil {
			return nil, err
		}
		out[id] = strings.TrimSpace(v)
	}
	return out, nil
}

func cmdCompute(args []string) error {
	fs := flag.NewFlagSet("compute", flag.ExitOnError)
	cfgPath := commonFlags(fs)
	date := fs.String("date", model.FormatDate(time.Now()), "Record date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	e, err := loadEnv(*cfgPath)
	if err != nil {
		return err
	}
	inputs, err := parseInputs(fs.Args())
	if err != nil {
		return err
	}
	if !model.ValidDate(*date) {
		return fmt.Errorf("%w: %q", ledger.ErrInvalidDate, *date)
	}
	printRecord(ledger.ComputeRecord(*date, inputs, e.stations), e.stations)
	return nil
}

func cmdAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	cfgPath := commonFlags(fs)
	date := fs.String("date", model.FormatDate(time.Now()), "Record date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	e, err := loadEnv(*cfgPath)
	if err != nil {
		return err
	}
	inputs, err := parseInputs(fs.Args())
	if err != nil {
		return err
	}
	if err := recovery.Validate(inputs, e.stations); err != nil {
		return err
	}

	ctx := context.Background()
	book, closeFn, err := e.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := book.Submit(ctx, *date, inputs)
	if err != nil {
		return err
	}
	verb := "Added"
	if res.Updated {
		verb = "Updated"
	}
	fmt.Printf("%s record for %s\n", verb, res.Record.Date)
	printRecord(res.Record, e.stations)
	return nil
}

func cmdDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	cfgPath := commonFlags(fs)
	date := fs.String("date", "", "Record date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *date == "" {
		return errors.New("--date is required")
	}
	e, err := loadEnv(*cfgPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	book, closeFn, err := e.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := book.Delete(ctx, *date); err != nil {
		return err
	}
	fmt.Printf("Deleted record for %s\n", *date)
	return nil
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := commonFlags(fs)
	inPath := fs.String("in", "", "CSV file to import")
	_ = fs.Parse(args)

	if *inPath == "" {
		return errors.New("--in is required")
	}
	e, err := loadEnv(*cfgPath)
	if err != nil {
		return err
	}
	f, err := os.Open(*inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := ledger.ReadCSV(f, e.stations)
	if err != nil {
		return err
	}
	for _, w := range res.Skipped {
		fmt.Printf("  skipped line %d: %s\n", w.Line, w.Reason)
	}

	ctx := context.Background()
	book, closeFn, err := e.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := book.Import(ctx, res.Records); err != nil {
		return err
	}
	fmt.Printf("Imported %d records (%d rows skipped)\n", len(res.Records), len(res.Skipped))
	return nil
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := commonFlags(fs)
	outPath := fs.String("out", "results/solar_power_records_"+model.FormatDate(time.Now())+".csv", "Output path (.csv or .xlsx)")
	_ = fs.Parse(args)

	e, err := loadEnv(*cfgPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	book, closeFn, err := e.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	records := book.Records()
	write := ledger.WriteCSV
	if strings.EqualFold(filepath.Ext(*outPath), ".xlsx") {
		write = ledger.WriteXLSX
	}
	if err := writeFile(*outPath, func(f *os.File) error {
		return write(f, records, e.stations)
	}); err != nil {
		return err
	}
	fmt.Printf("Wrote %d records to %s\n", len(records), *outPath)
	return nil
}

func cmdTemplate(args []string) error {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	cfgPath := commonFlags(fs)
	outPath := fs.String("out", "solar_power_template.csv", "Output CSV path")
	_ = fs.Parse(args)

	e, err := loadEnv(*cfgPath)
	if err != nil {
		return err
	}
	if err := writeFile(*outPath, func(f *os.File) error {
		return ledger.WriteTemplate(f, e.stations)
	}); err != nil {
		return err
	}
	fmt.Printf("Wrote template to %s\n", *outPath)
	return nil
}

func cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := commonFlags(fs)
	rangeStr := fs.String("range", "30d", "Series range: 30d, 90d, 1y or all")
	_ = fs.Parse(args)

	r, err := analysis.ParseRange(*rangeStr)
	if err != nil {
		return err
	}
	e, err := loadEnv(*cfgPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	book, closeFn, err := e.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	now := time.Now()
	records := book.Records()
	q := analysis.Quick(records, now)
	fmt.Printf("Last 7 days:  %.2f Wh\n", q.Last7DaysWh)
	fmt.Printf("Last 30 days: %.2f Wh\n", q.Last30DaysWh)

	inRange := analysis.Filter(records, r, now)
	s := analysis.Summarize(inRange, e.stations)
	fmt.Printf("\nRange %s: %d days, total %.2f Wh, mean %.2f Wh (sd %.2f), min %.2f, max %.2f\n",
		r, s.Days, s.TotalWh, s.MeanWh, s.StdDevWh, s.MinWh, s.MaxWh)
	fmt.Printf("%-10s %-12s %-10s %-8s\n", "station", "total_wh", "mean_pct", "degraded")
	for _, st := range e.stations {
		ss := s.PerStation[st.ID]
		fmt.Printf("%-10s %-12.2f %-10.1f %-8d\n", st.Name, ss.TotalWh, ss.MeanPercentage, ss.DegradedDays)
	}
	return nil
}

func printRecord(r model.DailyPowerRecord, stations []model.StationConfig) {
	fmt.Printf("%-10s %-10s %-8s %-10s\n", "station", "input", "pct", "wh")
	for _, st := range stations {
		sd := r.StationData[st.ID]
		note := ""
		if sd.Degraded {
			note = "  (invalid, recorded as 0)"
		}
		fmt.Printf("%-10s %-10s %-8.1f %-10.2f%s\n", st.Name, sd.Input, sd.RecoveredPercentage, sd.RecoveredWh, note)
	}
	fmt.Printf("Total: %.2f Wh\n", r.TotalWhGenerated)
}

func writeFile(path string, fn func(f *os.File) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
