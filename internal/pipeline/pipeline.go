package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesdw/internal/config"
	"salesdw/internal/dataset"
	pipeerrors "salesdw/internal/errors"
	"salesdw/internal/reader"
	"salesdw/internal/scrub"
	"salesdw/internal/star"
	"salesdw/internal/warehouse"
)

// Extract file names written to the output directory.
const (
	CubeFileName           = "sales_cube.csv"
	HighValueCustomersFile = "high_value_customers.csv"
)

// Store is the persistence surface the pipeline needs. *warehouse.Store
// satisfies it; tests substitute a fake.
type Store interface {
	LoadAll(ctx context.Context, customers []star.CustomerDim, products []star.ProductDim, dates []star.DateDim, facts []star.SalesFact) []warehouse.TableResult
	RecordRun(ctx context.Context, run warehouse.RunRecord) error
}

// Pipeline runs one full refresh end to end.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	reader   *reader.Reader
	scrubber *scrub.Scrubber
	builder  *star.Builder
	store    Store
}

// New assembles a pipeline from its collaborators.
func New(cfg *config.Config, logger *slog.Logger, store Store) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	thresholds := star.Thresholds{
		Silver:   cfg.Tiers.Silver,
		Gold:     cfg.Tiers.Gold,
		Platinum: cfg.Tiers.Platinum,
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		reader:   reader.New(logger),
		scrubber: scrub.New(logger),
		builder:  star.NewBuilder(logger, thresholds),
		store:    store,
	}
}

// source pairs a source's configuration with its state through the run.
type source struct {
	name  string
	cfg   config.SourceConfig
	table *dataset.Table
}

// Run executes the refresh. It never returns an error: every failure is
// absorbed into the report, and the report's status and exit code carry
// the outcome.
func (p *Pipeline) Run(ctx context.Context) *RunReport {
	report := &RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
	state := NewRunState()
	log := p.logger.With(slog.String("run_id", report.RunID.String()))

	log.Info("pipeline run starting",
		slog.String("input_dir", p.cfg.Paths.InputDir),
		slog.String("output_dir", p.cfg.Paths.OutputDir))

	sources := []*source{
		{name: "customers", cfg: p.cfg.Sources.Customers},
		{name: "products", cfg: p.cfg.Sources.Products},
		{name: "sales", cfg: p.cfg.Sources.Sales},
	}

	p.extract(state, report, sources, log)
	p.scrub(state, report, sources, log)

	customers, products, dates := p.dimensions(state, sources, log)
	facts := p.facts(state, report, sources, customers, products, dates)
	p.exports(state, facts, customers, products, dates, log)
	p.load(ctx, state, report, facts, customers, products, dates, log)

	report.FinishedAt = time.Now()
	report.Steps = state.Steps()
	report.Status = p.status(state, report)

	p.record(ctx, report, log)

	log.Info("pipeline run finished",
		slog.String("status", string(report.Status)),
		slog.Duration("duration", report.Duration()),
		slog.Int("rows_read", report.RowsRead()),
		slog.Int("rows_rejected", report.RowsRejected()),
		slog.Int("facts_built", report.FactsBuilt),
		slog.Int("unresolved_facts", report.UnresolvedFacts))
	log.Info(report.Summary())

	return report
}

// extract reads every configured source. A missing file or malformed
// header skips that source; the run continues with the rest.
func (p *Pipeline) extract(state *RunState, report *RunReport, sources []*source, log *slog.Logger) {
	state.Start(StepExtract)

	readable := 0
	for _, src := range sources {
		sr := SourceReport{Name: src.name, File: src.cfg.File}

		path := filepath.Join(p.cfg.Paths.InputDir, src.cfg.File)
		table, err := p.reader.Read(src.name, path, src.cfg.RequiredColumns)
		if err != nil {
			sr.Skipped = true
			sr.SkipReason = skipReason(err)
			log.Warn("source skipped",
				slog.String("source", src.name),
				slog.String("reason", sr.SkipReason),
				slog.Any("error", err))
		} else {
			src.table = table
			sr.RowsRead = table.RowCount()
			readable++
		}

		report.Sources = append(report.Sources, sr)
	}

	if readable == 0 {
		state.Fail(StepExtract, "no source readable")
		return
	}
	state.Complete(StepExtract)
}

// scrub cleans every table that survived extraction and snapshots the
// cleaned rows to the output directory.
func (p *Pipeline) scrub(state *RunState, report *RunReport, sources []*source, log *slog.Logger) {
	if state.Step(StepExtract).Status == StepStatusFailed {
		state.Skip(StepScrub, "nothing extracted")
		return
	}
	state.Start(StepScrub)

	for i, src := range sources {
		if src.table == nil {
			continue
		}

		opts, err := scrub.FromSource(src.cfg)
		if err == nil {
			var result *scrub.Result
			result, err = p.scrubber.Scrub(src.table, opts)
			if err == nil {
				report.Sources[i].Rejected = result.Rejected
				report.Sources[i].RowsKept = result.Table.RowCount()
				p.snapshot(src, log)
				continue
			}
		}

		// Structural faults disqualify the source, not the run.
		src.table = nil
		report.Sources[i].Skipped = true
		report.Sources[i].SkipReason = skipReason(err)
		log.Warn("source skipped",
			slog.String("source", src.name),
			slog.String("reason", report.Sources[i].SkipReason),
			slog.Any("error", err))
	}

	state.Complete(StepScrub)
}

// snapshot writes the cleaned table next to the extracts for audit.
// Snapshot failures are logged but never affect the run outcome.
func (p *Pipeline) snapshot(src *source, log *slog.Logger) {
	path := filepath.Join(p.cfg.Paths.OutputDir, src.name+"_clean.csv")
	if err := src.table.WriteCSVFile(path); err != nil {
		log.Warn("snapshot write failed",
			slog.String("source", src.name),
			slog.String("path", path),
			slog.Any("error", err))
	}
}

// dimensions builds whichever dimensions have a surviving source.
func (p *Pipeline) dimensions(state *RunState, sources []*source, log *slog.Logger) ([]star.CustomerDim, []star.ProductDim, []star.DateDim) {
	state.Start(StepDimensions)

	byName := make(map[string]*dataset.Table, len(sources))
	for _, src := range sources {
		byName[src.name] = src.table
	}

	var (
		customers []star.CustomerDim
		products  []star.ProductDim
		dates     []star.DateDim
		missing   []string
	)

	if t := byName["customers"]; t != nil {
		dims, err := p.builder.BuildCustomerDimension(t)
		if err != nil {
			log.Error("customer dimension failed", slog.Any("error", err))
			missing = append(missing, "customer_dim")
		} else {
			customers = dims
		}
	} else {
		missing = append(missing, "customer_dim")
	}

	if t := byName["products"]; t != nil {
		dims, err := p.builder.BuildProductDimension(t)
		if err != nil {
			log.Error("product dimension failed", slog.Any("error", err))
			missing = append(missing, "product_dim")
		} else {
			products = dims
		}
	} else {
		missing = append(missing, "product_dim")
	}

	if t := byName["sales"]; t != nil {
		dims, err := p.builder.BuildDateDimension(t)
		if err != nil {
			log.Error("date dimension failed", slog.Any("error", err))
			missing = append(missing, "date_dim")
		} else {
			dates = dims
		}
	} else {
		missing = append(missing, "date_dim")
	}

	if len(missing) > 0 {
		state.Skip(StepDimensions, "not built: "+strings.Join(missing, ", "))
		return customers, products, dates
	}
	state.Complete(StepDimensions)
	return customers, products, dates
}

// facts builds the fact table. It requires the sales source and all
// three dimensions; anything less skips the step.
func (p *Pipeline) facts(
	state *RunState,
	report *RunReport,
	sources []*source,
	customers []star.CustomerDim,
	products []star.ProductDim,
	dates []star.DateDim,
) *star.FactResult {
	var sales *dataset.Table
	for _, src := range sources {
		if src.name == "sales" {
			sales = src.table
		}
	}

	if sales == nil || state.Step(StepDimensions).Status != StepStatusCompleted {
		state.Skip(StepFacts, "dimensional model incomplete")
		return nil
	}
	state.Start(StepFacts)

	result, err := p.builder.BuildSalesFacts(sales, customers, products, dates)
	if err != nil {
		state.Fail(StepFacts, err.Error())
		return nil
	}

	report.FactsBuilt = len(result.Facts)
	report.UnresolvedFacts = result.Unresolved
	state.Complete(StepFacts)
	return result
}

// exports writes the reporting extracts derived from the fact table.
func (p *Pipeline) exports(
	state *RunState,
	facts *star.FactResult,
	customers []star.CustomerDim,
	products []star.ProductDim,
	dates []star.DateDim,
	log *slog.Logger,
) {
	if facts == nil {
		state.Skip(StepExports, "no facts to export")
		return
	}
	state.Start(StepExports)

	cube := star.BuildCube(facts.Facts, customers, products, dates)
	values := star.BuildCustomerValues(facts.Facts, customers)

	var failed []string
	if err := star.WriteExtractFile(p.cfg.Paths.OutputDir, CubeFileName, func(w io.Writer) error {
		return star.WriteCubeCSV(cube, w)
	}); err != nil {
		log.Error("cube export failed", slog.Any("error", err))
		failed = append(failed, CubeFileName)
	}
	if err := star.WriteExtractFile(p.cfg.Paths.OutputDir, HighValueCustomersFile, func(w io.Writer) error {
		return star.WriteCustomerValueCSV(values, w)
	}); err != nil {
		log.Error("customer value export failed", slog.Any("error", err))
		failed = append(failed, HighValueCustomersFile)
	}

	if len(failed) > 0 {
		state.Fail(StepExports, "write failed: "+strings.Join(failed, ", "))
		return
	}
	log.Info("extracts written",
		slog.String("dir", p.cfg.Paths.OutputDir),
		slog.Int("cube_rows", len(cube)),
		slog.Int("customer_rows", len(values)))
	state.Complete(StepExports)
}

// load replaces the warehouse tables. A run that could not build the
// full model leaves the warehouse untouched rather than replacing some
// tables and orphaning the rest.
func (p *Pipeline) load(
	ctx context.Context,
	state *RunState,
	report *RunReport,
	facts *star.FactResult,
	customers []star.CustomerDim,
	products []star.ProductDim,
	dates []star.DateDim,
	log *slog.Logger,
) {
	if facts == nil {
		state.Skip(StepLoad, "dimensional model incomplete")
		return
	}
	state.Start(StepLoad)

	results := p.store.LoadAll(ctx, customers, products, dates, facts.Facts)
	report.LoadResults = results

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	switch {
	case failed == len(results) && len(results) > 0:
		state.Fail(StepLoad, "every table failed")
	case failed > 0:
		state.Complete(StepLoad)
		log.Warn("load finished with failed tables", slog.Int("failed", failed))
	default:
		state.Complete(StepLoad)
	}
}

// record appends the run to the audit table. Audit failures are logged
// and swallowed; they never change the run outcome.
func (p *Pipeline) record(ctx context.Context, report *RunReport, log *slog.Logger) {
	run := warehouse.RunRecord{
		RunID:           report.RunID,
		StartedAt:       report.StartedAt,
		FinishedAt:      report.FinishedAt,
		Status:          string(report.Status),
		RowsRead:        report.RowsRead(),
		RowsRejected:    report.RowsRejected(),
		UnresolvedFacts: report.UnresolvedFacts,
		FactsLoaded:     report.FactsLoaded(),
		Detail:          report.Summary(),
	}
	if err := p.store.RecordRun(ctx, run); err != nil {
		log.Warn("run audit record failed", slog.Any("error", err))
	}
}

// status derives the overall outcome from the step states.
func (p *Pipeline) status(state *RunState, report *RunReport) RunStatus {
	allSourcesSkipped := true
	anySourceSkipped := false
	for _, s := range report.Sources {
		if s.Skipped {
			anySourceSkipped = true
		} else {
			allSourcesSkipped = false
		}
	}

	loadFailed := state.Step(StepLoad).Status == StepStatusFailed
	anyTableFailed := false
	for _, lr := range report.LoadResults {
		if lr.Failed() {
			anyTableFailed = true
		}
	}

	switch {
	case allSourcesSkipped || loadFailed:
		return StatusFailure
	case anySourceSkipped || anyTableFailed || report.UnresolvedFacts > 0 ||
		state.HasFailures() || state.HasSkips():
		return StatusPartialFailure
	default:
		return StatusSuccess
	}
}

// skipReason renders a short stable reason string from a stage error.
func skipReason(err error) string {
	if code := pipeerrors.CodeOf(err); code != "" {
		return string(code)
	}
	if err == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.80s", err.Error())
}
