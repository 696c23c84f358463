package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"archive-analyzer/memorylol"
	"archive-analyzer/models"
	"archive-analyzer/utils"
	"archive-analyzer/wayback"
)

// IdentityResolver looks up the account history of a handle.
type IdentityResolver interface {
	Resolve(ctx context.Context, handle string) (*models.IdentitySummary, error)
}

// ArchiveFetcher retrieves raw archive records for a handle.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, p models.FetchParams) ([]models.RawRecord, error)
}

// RecordSaver persists a normalized table for later re-analysis.
type RecordSaver interface {
	Save(ctx context.Context, handle string, t *models.Table) (int, error)
}

// Request is one analysis run's input.
type Request struct {
	Handle   string
	FromDate models.Optional[string]
	ToDate   models.Optional[string]
	Limit    models.Optional[int]
	Keywords []string
}

// Report is everything one analysis run produced.
type Report struct {
	RunID       string
	Handle      string
	GeneratedAt time.Time

	Identity *models.IdentitySummary
	// Table is the full normalized table; Filter.Table is the keyword view.
	Table         *models.Table
	Filter        *FilterResult
	Keywords      []string
	KeywordCounts []models.KeywordCount
	Insights      *models.InsightReport

	// Warnings are the non-fatal failures met along the way.
	Warnings []string
}

// Analyzer runs the whole pipeline: identity lookup, archive fetch,
// normalization, keyword filtering and analytics.
type Analyzer struct {
	identity   IdentityResolver
	archive    ArchiveFetcher
	saver      RecordSaver
	normalizer *Normalizer
	filter     *KeywordFilter
	insights   *InsightService
	logger     *utils.Logger
	now        func() time.Time
}

// NewAnalyzer wires an Analyzer. saver may be nil to skip persistence.
func NewAnalyzer(identity IdentityResolver, archive ArchiveFetcher, saver RecordSaver, logger *utils.Logger) *Analyzer {
	return &Analyzer{
		identity:   identity,
		archive:    archive,
		saver:      saver,
		normalizer: NewNormalizer(logger),
		filter:     NewKeywordFilter(logger),
		insights:   NewInsightService(logger),
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one analysis. Collaborator failures never abort the run;
// they become warnings on the returned report. The only error is an
// invalid request.
func (a *Analyzer) Run(ctx context.Context, req Request) (*Report, error) {
	handle := strings.TrimSpace(req.Handle)
	if handle == "" {
		return nil, errors.New("analyze: handle is required")
	}

	rep := a.newReport(handle, req.Keywords)

	a.logger.Info("[analyzer] Run %s: resolving identity for @%s", rep.RunID, handle)
	identity, err := a.identity.Resolve(ctx, handle)
	switch {
	case errors.Is(err, memorylol.ErrNoData):
		a.warn(rep, "No identity history found for @%s", handle)
	case err != nil:
		a.warn(rep, "Identity lookup failed: %v", err)
	default:
		rep.Identity = identity
	}

	a.logger.Info("[analyzer] Run %s: fetching archive for @%s", rep.RunID, handle)
	records, err := a.archive.Fetch(ctx, models.FetchParams{
		Handle:   handle,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Limit:    req.Limit,
	})
	switch {
	case errors.Is(err, wayback.ErrNoRecords):
		a.warn(rep, "No archived tweets found for the specified criteria")
	case err != nil:
		a.warn(rep, "Archive fetch failed: %v", err)
		records = nil
	}

	table := a.normalizer.Normalize(records, handle)

	if a.saver != nil && !table.Empty() {
		n, err := a.saver.Save(ctx, handle, table)
		if err != nil {
			a.warn(rep, "Saving records failed: %v", err)
		} else {
			a.logger.Info("[analyzer] Stored %d new row(s) for @%s", n, handle)
		}
	}

	a.analyze(rep, table)
	return rep, nil
}

// Reanalyze filters and aggregates an already normalized table, such as one
// reloaded from storage, without contacting any service.
func (a *Analyzer) Reanalyze(handle string, table *models.Table, keywords []string) *Report {
	rep := a.newReport(handle, keywords)
	if table == nil {
		table = &models.Table{}
	}
	a.analyze(rep, table)
	return rep
}

func (a *Analyzer) newReport(handle string, keywords []string) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		Handle:      handle,
		GeneratedAt: a.now(),
		Keywords:    keywords,
	}
}

func (a *Analyzer) analyze(rep *Report, table *models.Table) {
	rep.Table = table
	rep.Filter = a.filter.Filter(table, rep.Keywords)
	if len(rep.Keywords) > 0 {
		rep.KeywordCounts = Breakdown(table, rep.Keywords)
	}
	rep.Insights = a.insights.Generate(table)
	a.logger.Info("[analyzer] Run %s complete: %d row(s), %d shown, %d warning(s)",
		rep.RunID, table.Len(), rep.Filter.Table.Len(), len(rep.Warnings))
}

func (a *Analyzer) warn(rep *Report, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	rep.Warnings = append(rep.Warnings, msg)
	a.logger.Warn("[analyzer] %s", msg)
}
