package tez

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"yoktez-backend/lib/scrapers/yoktez"
	"yoktez-backend/lib/textutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Statistics is a client-side reduction over a broad search; the portal
// has no aggregate endpoint of its own.
type Statistics struct {
	Total        int            `json:"total_count"`
	ByType       map[string]int `json:"by_type"`
	ByYear       map[string]int `json:"by_year"`
	ByUniversity map[string]int `json:"by_university"`
	ByLanguage   map[string]int `json:"by_language"`
}

// StatisticsFilter narrows the underlying search.
type StatisticsFilter struct {
	University string
	Year       int
	Type       yoktez.ThesisType
}

const statisticsSearchCap = 1000

// universities are counted as one bucket when their normalized names are
// at least this similar; the portal spells institutions inconsistently
const universitySimilarityThreshold = 0.93

func (s Service) GetStatistics(ctx context.Context, filter StatisticsFilter) (Statistics, error) {
	ctx, span := tracer.Start(ctx, "GetStatistics")
	defer span.End()

	query := yoktez.SearchQuery{
		Term:       "*",
		Field:      yoktez.FieldAll,
		University: filter.University,
		Type:       filter.Type,
		MaxResults: statisticsSearchCap,
	}
	if filter.Year > 0 {
		query.YearStart = filter.Year
		query.YearEnd = filter.Year
	}

	results, err := s.scraper.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Statistics{}, err
	}
	s.archiveSummaries(ctx, results)

	stats := reduceStatistics(results)
	span.SetAttributes(attribute.Int("total", stats.Total))

	s.snapshotStatistics(ctx, stats)
	return stats, nil
}

func reduceStatistics(results []yoktez.ThesisSummary) Statistics {
	stats := Statistics{
		Total:        len(results),
		ByType:       map[string]int{},
		ByYear:       map[string]int{},
		ByUniversity: map[string]int{},
		ByLanguage:   map[string]int{},
	}

	grouper := newUniversityGrouper()
	for _, row := range results {
		stats.ByType[orUnknown(row.ThesisType)]++
		if row.Year > 0 {
			stats.ByYear[strconv.Itoa(row.Year)]++
		}
		stats.ByUniversity[grouper.canonical(row.University)]++
		stats.ByLanguage[orUnknown(row.Language)]++
	}
	return stats
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// universityGrouper folds near-identical spellings of the same
// institution into the first spelling seen.
type universityGrouper struct {
	// normalized comparison key -> display name
	seen map[string]string
}

func newUniversityGrouper() *universityGrouper {
	return &universityGrouper{seen: map[string]string{}}
}

func (g *universityGrouper) canonical(name string) string {
	if name == "" {
		return "unknown"
	}

	key := textutil.NormalizeName(name)
	if display, ok := g.seen[key]; ok {
		return display
	}
	for existingKey, display := range g.seen {
		if matchr.JaroWinkler(key, existingKey, true) >= universitySimilarityThreshold {
			g.seen[key] = display
			return display
		}
	}
	g.seen[key] = name
	return name
}

// snapshotStatistics archives the aggregate for trend inspection; a
// failed snapshot never fails the statistics call.
func (s Service) snapshotStatistics(ctx context.Context, stats Statistics) {
	if s.qry == nil {
		return
	}
	byType, _ := json.Marshal(stats.ByType)
	byYear, _ := json.Marshal(stats.ByYear)
	byUniversity, _ := json.Marshal(stats.ByUniversity)
	byLanguage, _ := json.Marshal(stats.ByLanguage)

	err := s.qry.InsertStatsSnapshot(ctx, stats.Total,
		string(byType), string(byYear), string(byUniversity), string(byLanguage))
	if err != nil {
		slog.WarnContext(ctx, "statistics snapshot failed", "err", err)
	}
}
