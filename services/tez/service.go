// Package tez is the service facade over the portal scraper: it owns the
// long-lived client, archives every record it returns and implements the
// aggregate operations the portal has no endpoint for.
package tez

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"yoktez-backend/lib/scrapers/yoktez"
	"yoktez-backend/services/tez/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/tez")

// Scraper is the part of the portal client the service consumes.
// *yoktez.Client satisfies it; tests substitute fixture-backed fakes.
type Scraper interface {
	Search(ctx context.Context, query yoktez.SearchQuery) ([]yoktez.ThesisSummary, error)
	AdvancedSearch(ctx context.Context, query yoktez.AdvancedQuery) (yoktez.AdvancedResult, error)
	GetRecent(ctx context.Context, days int, limit int) ([]yoktez.ThesisSummary, error)
	GetDetails(ctx context.Context, thesisId string) (yoktez.ThesisDetail, error)
	Close(ctx context.Context) error
}

type Service struct {
	scraper Scraper
	db      *sql.DB
	qry     *db.Queries
}

// NewService wires the scraper to an archive database. A nil database
// disables archiving; every read still goes through the scraper.
func NewService(scraper Scraper, database *sql.DB) Service {
	s := Service{scraper: scraper, db: database}
	if database != nil {
		s.qry = db.New(database)
	}
	return s
}

func (s Service) Close(ctx context.Context) error {
	var errs []error
	if err := s.scraper.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s Service) archiveSummaries(ctx context.Context, rows []yoktez.ThesisSummary) {
	if s.qry == nil {
		return
	}
	for _, row := range rows {
		if err := s.qry.UpsertSummary(ctx, row); err != nil {
			slog.WarnContext(ctx, "archive summary failed", "thesis_id", row.Id, "err", err)
			continue
		}
	}
}

func (s Service) Search(ctx context.Context, query yoktez.SearchQuery) ([]yoktez.ThesisSummary, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("term", query.Term))

	results, err := s.scraper.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.archiveSummaries(ctx, results)
	return results, nil
}

func (s Service) AdvancedSearch(ctx context.Context, query yoktez.AdvancedQuery) (yoktez.AdvancedResult, error) {
	ctx, span := tracer.Start(ctx, "AdvancedSearch")
	defer span.End()

	out, err := s.scraper.AdvancedSearch(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return yoktez.AdvancedResult{}, err
	}

	s.archiveSummaries(ctx, out.Results)
	return out, nil
}

func (s Service) GetRecent(ctx context.Context, days int, limit int) ([]yoktez.ThesisSummary, error) {
	ctx, span := tracer.Start(ctx, "GetRecent")
	defer span.End()
	span.SetAttributes(attribute.Int("days", days))

	results, err := s.scraper.GetRecent(ctx, days, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.archiveSummaries(ctx, results)
	return results, nil
}

func (s Service) GetDetails(ctx context.Context, thesisId string) (yoktez.ThesisDetail, error) {
	ctx, span := tracer.Start(ctx, "GetDetails")
	defer span.End()
	span.SetAttributes(attribute.String("thesis_id", thesisId))

	detail, err := s.scraper.GetDetails(ctx, thesisId)
	if err != nil {
		if errors.Is(err, yoktez.ErrNotFound) && s.qry != nil {
			// the portal drops records from its index at times; the
			// archive may still remember them
			archived, dbErr := s.qry.GetDetail(ctx, thesisId)
			if dbErr == nil {
				span.SetAttributes(attribute.Bool("served_from_archive", true))
				return archived, nil
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return detail, err
	}

	if s.qry != nil {
		if dbErr := s.qry.UpsertDetail(ctx, detail); dbErr != nil {
			slog.WarnContext(ctx, "archive detail failed", "thesis_id", thesisId, "err", dbErr)
		}
	}
	return detail, nil
}

// GetAbstract is GetDetails narrowed to the abstract text, for callers
// that only want the prose. An archived record without an abstract still
// reports ErrNotFound.
func (s Service) GetAbstract(ctx context.Context, thesisId string) (string, error) {
	ctx, span := tracer.Start(ctx, "GetAbstract")
	defer span.End()

	detail, err := s.GetDetails(ctx, thesisId)
	if err != nil {
		return "", err
	}
	if detail.Abstract == "" {
		return "", yoktez.ErrNotFound
	}
	return detail.Abstract, nil
}
