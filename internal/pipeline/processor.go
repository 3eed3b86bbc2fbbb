// Package pipeline runs one settlement batch: documents are grouped per
// driver, extracted in parallel, merged, resolved against the roster and
// settled.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/route-settlement/constants"
	"github.com/joseph-ayodele/route-settlement/internal/async"
	"github.com/joseph-ayodele/route-settlement/internal/diagnostics"
	"github.com/joseph-ayodele/route-settlement/internal/document"
	"github.com/joseph-ayodele/route-settlement/internal/extract"
	"github.com/joseph-ayodele/route-settlement/internal/grouping"
	"github.com/joseph-ayodele/route-settlement/internal/match"
	"github.com/joseph-ayodele/route-settlement/internal/metrics"
	"github.com/joseph-ayodele/route-settlement/internal/roster"
	"github.com/joseph-ayodele/route-settlement/internal/settlement"
)

// Stats counts what happened to documents and driver groups in a run.
type Stats struct {
	Documents  int
	Unreadable int
	Groups     int
	Settled    int
	Unmatched  int
	Nameless   int
}

// Result is the outcome of a run. Settlements follow group order.
type Result struct {
	Settlements []settlement.Settlement
	Diagnostics *diagnostics.Collector
	Stats       Stats
}

// Processor coordinates extraction, merging, name resolution and settlement.
type Processor struct {
	logger   *slog.Logger
	source   document.Source
	parser   *extract.Parser
	resolver *match.Resolver
	calc     *settlement.Calculator
	roster   *roster.Roster
	pool     *async.Pool
	metrics  *metrics.Metrics
}

type Option func(*Processor)

func WithPool(p *async.Pool) Option {
	return func(pr *Processor) {
		if p != nil {
			pr.pool = p
		}
	}
}

func WithResolver(r *match.Resolver) Option {
	return func(pr *Processor) {
		if r != nil {
			pr.resolver = r
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(pr *Processor) { pr.metrics = m }
}

func NewProcessor(logger *slog.Logger, source document.Source, ros *roster.Roster, params settlement.Params, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:   logger,
		source:   source,
		parser:   extract.NewParser(logger),
		resolver: match.NewResolver(match.DefaultThreshold),
		calc:     settlement.NewCalculator(params),
		roster:   ros,
		pool:     async.NewPool(logger),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type docOutcome struct {
	result extract.Result
	diag   *diagnostics.Collector
	status constants.DocumentStatus
}

// Run processes paths. Recoverable conditions land in the returned
// diagnostics; only cancellation of ctx makes Run fail.
func (p *Processor) Run(ctx context.Context, paths []string) (Result, error) {
	groups := grouping.ByKey(paths)

	var ordered []string
	for _, g := range groups {
		ordered = append(ordered, g.Paths...)
	}

	outcomes := make([]docOutcome, len(ordered))
	err := p.pool.Run(ctx, ordered, func(ctx context.Context, job async.Job) {
		outcomes[job.Index] = p.extractOne(ctx, job.Path)
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Diagnostics: diagnostics.New(p.logger),
		Stats:       Stats{Documents: len(ordered), Groups: len(groups)},
	}
	next := 0
	for _, g := range groups {
		results := make([]extract.Result, len(g.Paths))
		readable := 0
		for i := range g.Paths {
			o := outcomes[next]
			next++
			res.Diagnostics.Merge(o.diag)
			if o.status == constants.DocumentStatusUnreadable {
				res.Stats.Unreadable++
			} else {
				readable++
			}
			results[i] = o.result
		}

		stl, status := p.settleGroup(g, grouping.Merge(results), readable > 0, res.Diagnostics)
		p.metrics.IncDriver(string(status))
		switch status {
		case constants.DriverStatusSettled:
			res.Settlements = append(res.Settlements, stl)
			res.Stats.Settled++
		case constants.DriverStatusUnmatched:
			res.Stats.Unmatched++
		case constants.DriverStatusNameless:
			res.Stats.Nameless++
		}
	}

	p.logger.Info("pipeline.run.ok",
		"documents", res.Stats.Documents,
		"unreadable", res.Stats.Unreadable,
		"groups", res.Stats.Groups,
		"settled", res.Stats.Settled,
		"unmatched", res.Stats.Unmatched,
		"nameless", res.Stats.Nameless,
	)
	return res, nil
}

// extractOne loads and parses one document into its own collector. An
// unreadable document yields an empty result and exactly one warning.
func (p *Processor) extractOne(ctx context.Context, path string) docOutcome {
	start := time.Now()
	name := filepath.Base(path)
	diag := diagnostics.New(p.logger.With("file", name))

	doc, err := p.source.Load(ctx, path)
	if err != nil {
		diag.Warnf("Could not read document %s: %v", name, err)
		p.metrics.ObserveDocument(string(constants.DocumentStatusUnreadable), time.Since(start))
		return docOutcome{result: extract.Empty(), diag: diag, status: constants.DocumentStatusUnreadable}
	}
	if doc.Name == "" {
		doc.Name = name
	}

	res := p.parser.Extract(doc, diag)
	p.metrics.ObserveDocument(string(constants.DocumentStatusRead), time.Since(start))
	p.logger.Debug("document extracted",
		"file", name,
		"lines", len(doc.Lines),
		"table_rows", len(doc.TableRows),
		"has_name", res.HasName,
		"dates", len(res.Dates()),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return docOutcome{result: res, diag: diag, status: constants.DocumentStatusRead}
}

// settleGroup resolves and computes one driver. A group whose documents were
// all unreadable is dropped without a further warning; each document was
// already reported.
func (p *Processor) settleGroup(g grouping.Group, merged extract.Result, anyReadable bool, diag *diagnostics.Collector) (settlement.Settlement, constants.DriverStatus) {
	files := groupFiles(g)
	if !merged.HasName {
		if anyReadable {
			diag.Warnf("No driver name found in %s; driver skipped", files)
		}
		return settlement.Settlement{}, constants.DriverStatusNameless
	}

	m, err := p.resolver.Resolve(merged.DriverName, p.roster)
	if errors.Is(err, match.ErrNoMatch) {
		diag.Warnf("Driver %s (%s) not found in roster; driver skipped", merged.DriverName, files)
		return settlement.Settlement{}, constants.DriverStatusUnmatched
	}
	entry, ok := p.roster.Get(m.Name)
	if err != nil || !ok {
		diag.Warnf("Driver %s (%s) could not be resolved: %v; driver skipped", merged.DriverName, files, err)
		return settlement.Settlement{}, constants.DriverStatusUnmatched
	}

	p.logger.Info("driver resolved",
		"group", g.Key,
		"raw_name", merged.DriverName,
		"roster_name", m.Name,
		"score", m.Score,
	)
	return p.calc.Compute(merged, entry), constants.DriverStatusSettled
}

func groupFiles(g grouping.Group) string {
	names := make([]string, len(g.Paths))
	for i, path := range g.Paths {
		names[i] = filepath.Base(path)
	}
	return strings.Join(names, ", ")
}
