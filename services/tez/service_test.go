package tez

import (
	"context"
	"testing"

	"yoktez-backend/lib/scrapers/yoktez"
	"yoktez-backend/lib/testutil"
	"yoktez-backend/services/tez/db"

	"github.com/stretchr/testify/require"
)

// fakeScraper answers from canned records, tracking call counts so the
// tests can assert what reached the portal layer.
type fakeScraper struct {
	summaries   []yoktez.ThesisSummary
	details     map[string]yoktez.ThesisDetail
	searchCalls int
	detailCalls int
}

func (f *fakeScraper) Search(ctx context.Context, query yoktez.SearchQuery) ([]yoktez.ThesisSummary, error) {
	f.searchCalls++
	out := f.summaries
	if query.MaxResults > 0 && len(out) > query.MaxResults {
		out = out[:query.MaxResults]
	}
	return out, nil
}

func (f *fakeScraper) AdvancedSearch(ctx context.Context, query yoktez.AdvancedQuery) (yoktez.AdvancedResult, error) {
	f.searchCalls++
	return yoktez.AdvancedResult{Results: f.summaries, TotalFound: len(f.summaries)}, nil
}

func (f *fakeScraper) GetRecent(ctx context.Context, days int, limit int) ([]yoktez.ThesisSummary, error) {
	return f.summaries, nil
}

func (f *fakeScraper) GetDetails(ctx context.Context, thesisId string) (yoktez.ThesisDetail, error) {
	f.detailCalls++
	detail, ok := f.details[thesisId]
	if !ok {
		minimal := yoktez.ThesisDetail{}
		minimal.Id = thesisId
		minimal.Title = "Detaylar yüklenemedi"
		minimal.Author = "Bilinmiyor"
		return minimal, yoktez.ErrNotFound
	}
	return detail, nil
}

func (f *fakeScraper) Close(ctx context.Context) error { return nil }

func setupService(t *testing.T, scraper Scraper) Service {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "tez",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	return NewService(scraper, res.DB)
}

var testSummaries = []yoktez.ThesisSummary{
	{Id: "1", Author: "Ayşe Demir", Year: 2021, Title: "Birinci Tez", ThesisType: "Yüksek Lisans", University: "Ankara Üniversitesi", Language: "Türkçe"},
	{Id: "2", Author: "Mehmet Kaya", Year: 2021, Title: "İkinci Tez", ThesisType: "Doktora", University: "Ankara Universitesi", Language: "Türkçe"},
	{Id: "3", Author: "Zeynep Arslan", Year: 2020, Title: "Üçüncü Tez", ThesisType: "Doktora", University: "Ege Üniversitesi", Language: "İngilizce"},
}

func TestSearchArchivesResults(t *testing.T) {
	scraper := &fakeScraper{summaries: testSummaries}
	service := setupService(t, scraper)

	results, err := service.Search(context.Background(), yoktez.SearchQuery{
		Term: "tez", Field: yoktez.FieldAll,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	count, err := service.qry.CountArchived(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestGetDetailsArchivesAndRecovers(t *testing.T) {
	detail := yoktez.ThesisDetail{
		ThesisSummary: yoktez.ThesisSummary{Id: "1", Author: "Ayşe Demir", Year: 2021, Title: "Birinci Tez"},
		Advisor:       "Prof. Dr. Hasan Çelik",
		Abstract:      "uzun bir özet metni",
	}
	scraper := &fakeScraper{details: map[string]yoktez.ThesisDetail{"1": detail}}
	service := setupService(t, scraper)

	got, err := service.GetDetails(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, detail, got)

	// the portal forgets the record; the archive still has it
	delete(scraper.details, "1")
	got, err = service.GetDetails(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, detail, got)
}

func TestGetDetailsNotFoundWithoutArchive(t *testing.T) {
	scraper := &fakeScraper{}
	service := setupService(t, scraper)

	_, err := service.GetDetails(context.Background(), "999")
	require.ErrorIs(t, err, yoktez.ErrNotFound)
}

func TestGetAbstract(t *testing.T) {
	scraper := &fakeScraper{details: map[string]yoktez.ThesisDetail{
		"1": {
			ThesisSummary: yoktez.ThesisSummary{Id: "1", Title: "Tez"},
			Abstract:      "özet metni burada",
		},
		"2": {
			ThesisSummary: yoktez.ThesisSummary{Id: "2", Title: "Özetsiz Tez"},
		},
	}}
	service := setupService(t, scraper)

	abstract, err := service.GetAbstract(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "özet metni burada", abstract)

	// a record without recoverable prose is "not found" to this caller
	_, err = service.GetAbstract(context.Background(), "2")
	require.ErrorIs(t, err, yoktez.ErrNotFound)
}

func TestGetStatistics(t *testing.T) {
	scraper := &fakeScraper{summaries: testSummaries}
	service := setupService(t, scraper)

	stats, err := service.GetStatistics(context.Background(), StatisticsFilter{})
	require.NoError(t, err)

	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.ByType["Doktora"])
	require.Equal(t, 1, stats.ByType["Yüksek Lisans"])
	require.Equal(t, 2, stats.ByYear["2021"])
	require.Equal(t, 1, stats.ByYear["2020"])
	require.Equal(t, 2, stats.ByLanguage["Türkçe"])

	// "Ankara Üniversitesi" and "Ankara Universitesi" are the same
	// institution spelled differently
	require.Equal(t, 2, stats.ByUniversity["Ankara Üniversitesi"])
	require.Equal(t, 1, stats.ByUniversity["Ege Üniversitesi"])
	require.Len(t, stats.ByUniversity, 2)
}

func TestReduceStatisticsEmpty(t *testing.T) {
	stats := reduceStatistics(nil)
	require.Equal(t, 0, stats.Total)
	require.Empty(t, stats.ByType)
}
