package yoktez

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"yoktez-backend/lib/retry"
	"yoktez-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// keeps failure-path tests from sleeping through real backoff windows
var testRetry = retry.Policy{
	MaxAttempts:  2,
	InitialDelay: 5 * time.Millisecond,
	MaxDelay:     20 * time.Millisecond,
	Base:         2,
}

// fakePortal serves fixture pages the way the real portal does: one
// endpoint for the search form, one for direct detail urls.
type fakePortal struct {
	searchPage   string
	resultsPage  string
	detailPage   string
	detailStatus int

	warmups  atomic.Int64
	searches atomic.Int64
	details  atomic.Int64
}

func (p *fakePortal) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/UlusalTezMerkezi/tarama.jsp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			p.searches.Add(1)
			w.Write([]byte(p.resultsPage))
			return
		}
		p.warmups.Add(1)
		w.Write([]byte(p.searchPage))
	})
	mux.HandleFunc("/UlusalTezMerkezi/tezDetay.jsp", func(w http.ResponseWriter, r *http.Request) {
		p.details.Add(1)
		if p.detailStatus != 0 {
			w.WriteHeader(p.detailStatus)
		}
		w.Write([]byte(p.detailPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseUrl string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		BaseUrl:   baseUrl,
		RateDelay: time.Millisecond,
		CacheTTL:  time.Minute,
		Timeout:   5 * time.Second,
		Retry:     testRetry,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close(context.Background())
	})
	return client
}

func TestSearchEndToEnd(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	portal := &fakePortal{
		searchPage:  "<html><body>tarama</body></html>",
		resultsPage: readFixture(t, "results_table.html"),
	}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	results, err := client.Search(context.Background(), SearchQuery{
		Term:       "derin öğrenme",
		Field:      FieldTitle,
		MaxResults: 5,
	})
	require.NoError(t, err)
	require.Equal(t, []ThesisSummary{{
		Id:         "123",
		Author:     "Ahmet Yılmaz",
		Year:       2023,
		Title:      "Derin Öğrenme Yöntemleri",
		ThesisType: "Doktora",
	}}, results)

	// one warm-up navigation, then the form post
	require.EqualValues(t, 1, portal.warmups.Load())
	require.EqualValues(t, 1, portal.searches.Load())
}

func TestSearchCaching(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	portal := &fakePortal{
		searchPage:  "ok",
		resultsPage: readFixture(t, "results_table.html"),
	}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	query := SearchQuery{Term: "tez", Field: FieldAll, MaxResults: 5}
	_, err := client.Search(context.Background(), query)
	require.NoError(t, err)
	_, err = client.Search(context.Background(), query)
	require.NoError(t, err)

	require.EqualValues(t, 1, portal.searches.Load())
}

func TestSearchResultsAreOwnedByCaller(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	portal := &fakePortal{
		searchPage:  "ok",
		resultsPage: readFixture(t, "results_table.html"),
	}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	query := SearchQuery{Term: "tez", Field: FieldAll, MaxResults: 5}
	first, err := client.Search(context.Background(), query)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	wantTitle := first[0].Title

	// a caller scribbling over its result must not reach the cache
	first[0].Title = "scribbled"

	second, err := client.Search(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, wantTitle, second[0].Title)

	// nor does a cache-hit caller share a backing array with later ones
	second[0].Title = "scribbled again"
	third, err := client.Search(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, wantTitle, third[0].Title)
}

func TestGetDetailsDirect(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	portal := &fakePortal{
		searchPage: "ok",
		detailPage: readFixture(t, "detail_page.html"),
	}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	detail, err := client.GetDetails(context.Background(), "700001")
	require.NoError(t, err)
	require.Equal(t, "Makine Öğrenmesi ile Metin Sınıflandırma", detail.Title)
	require.Equal(t, "Ayşe Demir", detail.Author)
	require.EqualValues(t, 1, portal.details.Load())
	require.EqualValues(t, 0, portal.searches.Load())
}

func TestGetDetailsFallsBackOnErrorMarker(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	// direct url yields the portal's error page with status 200; the
	// id-scoped search must take over
	portal := &fakePortal{
		searchPage:  "ok",
		detailPage:  readFixture(t, "error_page.html"),
		resultsPage: readFixture(t, "results_docblocks.html"),
	}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	detail, err := client.GetDetails(context.Background(), "700002")
	require.NoError(t, err)
	require.Equal(t, "Doğal Dil İşleme Uygulamaları", detail.Title)
	require.Equal(t, "Mehmet Kaya", detail.Author)
	require.EqualValues(t, 1, portal.searches.Load())
}

func TestGetDetailsNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	portal := &fakePortal{
		searchPage:  "ok",
		detailPage:  readFixture(t, "error_page.html"),
		resultsPage: "<html><body>0 kayıt bulundu</body></html>",
	}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	detail, err := client.GetDetails(context.Background(), "404404")
	require.ErrorIs(t, err, ErrNotFound)
	// even the failure returns a well-formed record
	require.Equal(t, "404404", detail.Id)
	require.Equal(t, "Detaylar yüklenemedi", detail.Title)
}

func TestGetDetailsMinimalOnTotalFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{
		BaseUrl:   srv.URL,
		RateDelay: time.Millisecond,
		Timeout:   2 * time.Second,
		Retry:     testRetry,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(context.Background()) })

	detail, err := client.GetDetails(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "Detaylar yüklenemedi", detail.Title)
	require.Equal(t, "Bilinmiyor", detail.Author)
}

func TestAdvancedSearchTotalFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	portal := &fakePortal{
		searchPage:  "ok",
		resultsPage: readFixture(t, "results_docblocks.html"),
	}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	out, err := client.AdvancedSearch(context.Background(), AdvancedQuery{Keyword1: "öğrenme"})
	require.NoError(t, err)
	require.Len(t, out.Results, 5)
	require.Equal(t, 5, out.TotalFound)
}

func TestCloseIdempotent(t *testing.T) {
	portal := &fakePortal{searchPage: "ok"}
	srv := portal.server(t)
	client := newTestClient(t, srv.URL)

	require.NoError(t, client.Close(context.Background()))
	require.NoError(t, client.Close(context.Background()))

	_, err := client.Search(context.Background(), SearchQuery{Term: "x", Field: FieldAll})
	require.ErrorIs(t, err, ErrSession)
}

func TestTransportErrorsAreTagged(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:yoktez")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{
		BaseUrl:   srv.URL,
		RateDelay: time.Millisecond,
		Timeout:   2 * time.Second,
		Retry:     testRetry,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(context.Background()) })

	_, err = client.Search(context.Background(), SearchQuery{Term: "x", Field: FieldAll})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTransport))
}
