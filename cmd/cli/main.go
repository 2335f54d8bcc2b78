package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/aggregate"
	"github.com/Tomcat63/FinanceAnalyzer/internal/config"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
	"github.com/Tomcat63/FinanceAnalyzer/internal/export"
	infraBQ "github.com/Tomcat63/FinanceAnalyzer/internal/infra/bigquery"
	"github.com/Tomcat63/FinanceAnalyzer/internal/logger"
	"github.com/Tomcat63/FinanceAnalyzer/internal/report"
	"github.com/Tomcat63/FinanceAnalyzer/internal/session"
)

var printer = message.NewPrinter(language.German)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "summary":
		runSummary(log)
	case "advise":
		runAdvise(cfg, log)
	case "report":
		runReport(cfg, log)
	case "export":
		runExport(log)
	case "import":
		runImport(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Analyzer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  summary   Print totals, categories and 50/30/20 metrics of a transaction file")
	fmt.Println("  advise    Compute benchmark tips for a transaction file")
	fmt.Println("  report    Generate the PDF analysis report")
	fmt.Println("  export    Write the filtered transactions as an XLSX workbook")
	fmt.Println("  import    Fetch transactions from BigQuery into a transaction file")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// viewFlags are the input and filter flags shared by the analysis commands.
type viewFlags struct {
	file   *string
	from   *string
	to     *string
	search *string
}

func addViewFlags(fs *flag.FlagSet) viewFlags {
	return viewFlags{
		file:   fs.String("file", "", "Path to a transaction batch JSON file"),
		from:   fs.String("from", "", "Start date (YYYY-MM-DD), defaults to the earliest booking"),
		to:     fs.String("to", "", "End date (YYYY-MM-DD), defaults to the latest booking"),
		search: fs.String("q", "", "Case-insensitive search over payee and memo"),
	}
}

// load reads the batch file into a fresh session and applies the filters.
func (v viewFlags) load(log zerolog.Logger, gen advisory.Generator, timeout time.Duration) *session.Session {
	if *v.file == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	data, err := os.ReadFile(*v.file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *v.file).Msg("Failed to read transaction file")
	}
	var batch domain.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		log.Fatal().Err(err).Str("file", *v.file).Msg("Failed to decode transaction file")
	}

	s := session.New("cli", advisory.NewEngine(gen, timeout, log), log)
	bounds := s.Ingest(batch.Transactions, batch.Balance, batch.BalanceHistory)

	q := s.Query()
	from, to := q.From, q.To
	if *v.from != "" {
		d := mustDate(log, "from", *v.from)
		from = &d
	}
	if *v.to != "" {
		d := mustDate(log, "to", *v.to)
		to = &d
	}
	s.SetFilter(from, to, *v.search)

	log.Debug().Int("count", len(batch.Transactions)).Bool("bounds", bounds.Valid).Msg("Loaded transactions")
	return s
}

func mustDate(log zerolog.Logger, name, value string) civil.Date {
	d, err := civil.ParseDate(value)
	if err != nil {
		log.Fatal().Err(err).Str(name, value).Msg("Invalid date, expected YYYY-MM-DD")
	}
	return d
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	v := addViewFlags(fs)
	granularity := fs.String("granularity", "day", "Time series granularity (day, month)")
	fs.Parse(os.Args[2:])

	g, err := aggregate.ParseGranularity(*granularity)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid granularity")
	}

	s := v.load(log, nil, time.Second)
	sum := aggregate.Summarize(s.CurrentView(), g)

	fmt.Println("\n=== Totals ===")
	fmt.Printf("Income:      %s\n", eur(sum.Totals.Income))
	fmt.Printf("Expenses:    %s\n", eur(sum.Totals.Expenses))
	fmt.Printf("Fixed costs: %s (%s of income)\n", eur(sum.Totals.FixedCosts), printer.Sprintf("%.1f %%", sum.Totals.FixedCostRatio()))
	fmt.Printf("Net flow:    %s\n", eur(sum.Totals.NetFlow))
	if b, ok := s.Store().Balance(); ok {
		fmt.Printf("Balance:     %s\n", eur(b.Value))
	}

	fmt.Printf("\n=== Categories (%d) ===\n", len(sum.Categories))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, c := range sum.Categories {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.Name, eur(c.Amount), c.Count, printer.Sprintf("%.1f %%", c.RoundedShare()))
	}
	w.Flush()

	m := sum.Metrics
	fmt.Println("\n=== 50/30/20 ===")
	fmt.Printf("Needs:   %s\n", printer.Sprintf("%.1f %% (target %.0f %%)", m.Needs.Percentage, m.Needs.Target))
	fmt.Printf("Wants:   %s\n", printer.Sprintf("%.1f %% (target %.0f %%)", m.Wants.Percentage, m.Wants.Target))
	fmt.Printf("Savings: %s\n", printer.Sprintf("%.1f %% (target %.0f %%)", m.Savings.Percentage, m.Savings.Target))

	fmt.Printf("\n=== Largest (%d) ===\n", len(sum.Largest))
	for i, tx := range sum.Largest {
		fmt.Printf("%2d. %s  %-30s %s\n", i+1, tx.BookingDate, tx.Payee, eur(tx.Amount))
	}
	fmt.Println()
}

func runAdvise(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("advise", flag.ExitOnError)
	v := addViewFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AdvisoryTimeout+10*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	s := v.load(log, newGenerator(ctx, cfg, log), cfg.AdvisoryTimeout)
	snap := s.Advisory().Run(ctx, s.CurrentView())

	if snap.Comparison != nil {
		fmt.Println("\n=== Benchmarks ===")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, b := range snap.Comparison.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Category, eur(b.SpentAmount), share(b.ActualShare), share(b.TargetShare))
		}
		w.Flush()
	}

	fmt.Printf("\n=== Tips (%d) ===\n", len(snap.Tips))
	if snap.Fallback {
		fmt.Println("(generic fallback)")
	}
	for i, tip := range snap.Tips {
		fmt.Printf("\n%d. [%s] %s\n", i+1, tip.Polarity, tip.Title)
		fmt.Printf("   %s\n", tip.Description)
		fmt.Printf("   Confidence: %s\n", printer.Sprintf("%.0f %%", tip.Confidence*100))
	}
	fmt.Println()
}

func runReport(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	v := addViewFlags(fs)
	out := fs.String("out", "", "Output PDF path (defaults to the dated report name)")
	notes := fs.String("notes", "", "Free-text notes to include")
	advise := fs.Bool("advise", true, "Include benchmark tips")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AdvisoryTimeout+10*time.Second)
	defer cancel()

	var gen advisory.Generator
	if *advise {
		gen = newGenerator(ctx, cfg, log)
	}
	s := v.load(log, gen, cfg.AdvisoryTimeout)
	if *advise {
		s.Advisory().Run(ctx, s.CurrentView())
	}
	s.Advisory().SetNotes(*notes)

	now := time.Now()
	doc, data, err := report.Generate(s.ReportInput(cfg.BuildID, now))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate report")
	}

	path := *out
	if path == "" {
		path = report.FileName(now)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write report")
	}

	fmt.Printf("Wrote %s (%d pages, %d bytes)\n", path, len(doc.Pages), len(data))
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	v := addViewFlags(fs)
	out := fs.String("out", "", "Output XLSX path (defaults to the dated export name)")
	fs.Parse(os.Args[2:])

	s := v.load(log, nil, time.Second)

	path := *out
	if path == "" {
		path = export.FileName(time.Now())
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create export file")
	}
	defer f.Close()

	txs := s.CurrentView()
	if err := export.Write(f, txs); err != nil {
		log.Fatal().Err(err).Msg("Failed to write export")
	}

	fmt.Printf("Exported %d transactions to %s\n", len(txs), path)
}

func runImport(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	from := fs.String("from", "", "Start date (YYYY-MM-DD)")
	to := fs.String("to", "", "End date (YYYY-MM-DD)")
	out := fs.String("out", "transactions.json", "Output batch JSON path")
	fs.Parse(os.Args[2:])

	if !cfg.ImportEnabled() {
		log.Fatal().Msg("Error: GCP_PROJECT and BQ_DATASET must be set")
	}
	if *from == "" || *to == "" {
		log.Fatal().Msg("Usage: cli import -from YYYY-MM-DD -to YYYY-MM-DD [-out PATH]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	source, err := infraBQ.NewTransactionSource(ctx, cfg.GCPProject, cfg.BQDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery transaction source")
	}
	defer source.Close()

	batch, err := source.Fetch(ctx, mustDate(log, "from", *from), mustDate(log, "to", *to))
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode batch")
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("Failed to write batch")
	}

	fmt.Printf("Imported %d transactions to %s\n", len(batch.Transactions), *out)
}

// newGenerator returns the configured advisory backend, or nil for none.
func newGenerator(ctx context.Context, cfg *config.Config, log zerolog.Logger) advisory.Generator {
	switch cfg.AdvisoryBackend {
	case config.BackendGemini:
		client, err := advisory.NewGeminiClient(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini unavailable - using the generic tips")
			return nil
		}
		return advisory.NewGeminiGenerator(client.Models, cfg.GeminiModel)
	case config.BackendHTTP:
		return advisory.NewHTTPGenerator(cfg.AdvisoryURL, &http.Client{Timeout: cfg.AdvisoryTimeout})
	}
	return nil
}

func eur(d decimal.Decimal) string {
	return printer.Sprintf("%.2f €", d.Round(2).InexactFloat64())
}

func share(ratio decimal.Decimal) string {
	return printer.Sprintf("%.1f %%", ratio.Shift(2).InexactFloat64())
}
