package db

import (
	"context"
	"database/sql"
	"time"

	"yoktez-backend/lib/scrapers/yoktez"
)

// Queries wraps the archive tables. The archive is write-mostly: every
// record the service hands out is upserted here so statistics reruns and
// offline inspection do not re-hit the portal.
type Queries struct {
	db *sql.DB
}

func New(database *sql.DB) *Queries {
	return &Queries{db: database}
}

// UpsertSummary records a search row without touching detail-only
// columns a previous detail fetch may have filled.
func (q *Queries) UpsertSummary(ctx context.Context, row yoktez.ThesisSummary) error {
	if row.Id == "" {
		return nil
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO thesis (thesis_id, author, year, title, title_alt, thesis_type, university, language, subject, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (thesis_id) DO UPDATE SET
			author = excluded.author,
			year = excluded.year,
			title = excluded.title,
			title_alt = excluded.title_alt,
			thesis_type = excluded.thesis_type,
			university = excluded.university,
			language = excluded.language,
			subject = excluded.subject,
			updated_at = excluded.updated_at`,
		row.Id, row.Author, row.Year, row.Title, row.TitleAlt,
		row.ThesisType, row.University, row.Language, row.Subject,
		time.Now().Unix(),
	)
	return err
}

// UpsertDetail records a full detail fetch.
func (q *Queries) UpsertDetail(ctx context.Context, detail yoktez.ThesisDetail) error {
	if detail.Id == "" {
		return nil
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO thesis (
			thesis_id, author, year, title, title_alt, thesis_type, university,
			language, subject, advisor, co_advisor, institute, department,
			page_count, keywords, abstract, purpose, has_detail, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT (thesis_id) DO UPDATE SET
			author = excluded.author,
			year = excluded.year,
			title = excluded.title,
			title_alt = excluded.title_alt,
			thesis_type = excluded.thesis_type,
			university = excluded.university,
			language = excluded.language,
			subject = excluded.subject,
			advisor = excluded.advisor,
			co_advisor = excluded.co_advisor,
			institute = excluded.institute,
			department = excluded.department,
			page_count = excluded.page_count,
			keywords = excluded.keywords,
			abstract = excluded.abstract,
			purpose = excluded.purpose,
			has_detail = 1,
			updated_at = excluded.updated_at`,
		detail.Id, detail.Author, detail.Year, detail.Title, detail.TitleAlt,
		detail.ThesisType, detail.University, detail.Language, detail.Subject,
		detail.Advisor, detail.CoAdvisor, detail.Institute, detail.Department,
		detail.PageCount, detail.Keywords, detail.Abstract, detail.Purpose,
		time.Now().Unix(),
	)
	return err
}

// GetDetail returns an archived detail record, sql.ErrNoRows when the id
// was never archived with detail depth.
func (q *Queries) GetDetail(ctx context.Context, thesisId string) (yoktez.ThesisDetail, error) {
	var detail yoktez.ThesisDetail
	err := q.db.QueryRowContext(ctx, `
		SELECT thesis_id, author, year, title, title_alt, thesis_type,
			university, language, subject, advisor, co_advisor, institute,
			department, page_count, keywords, abstract, purpose
		FROM thesis WHERE thesis_id = ? AND has_detail = 1`,
		thesisId,
	).Scan(
		&detail.Id, &detail.Author, &detail.Year, &detail.Title,
		&detail.TitleAlt, &detail.ThesisType, &detail.University,
		&detail.Language, &detail.Subject, &detail.Advisor,
		&detail.CoAdvisor, &detail.Institute, &detail.Department,
		&detail.PageCount, &detail.Keywords, &detail.Abstract,
		&detail.Purpose,
	)
	return detail, err
}

// CountArchived reports how many records the archive holds.
func (q *Queries) CountArchived(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thesis`).Scan(&count)
	return count, err
}

// InsertStatsSnapshot stores one aggregate snapshot; the breakdowns
// arrive pre-serialized as json.
func (q *Queries) InsertStatsSnapshot(ctx context.Context, total int, byType, byYear, byUniversity, byLanguage string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO stats_snapshot (taken_at, total, by_type, by_year, by_university, by_language)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), total, byType, byYear, byUniversity, byLanguage,
	)
	return err
}
