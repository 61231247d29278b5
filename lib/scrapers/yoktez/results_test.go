package yoktez

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	contents, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(contents)
}

func TestParseStaticTable(t *testing.T) {
	html := readFixture(t, "results_table.html")

	results := parseResults(html, 5)
	expected := []ThesisSummary{
		{
			Id:         "123",
			Author:     "Ahmet Yılmaz",
			Year:       2023,
			Title:      "Derin Öğrenme Yöntemleri",
			ThesisType: "Doktora",
		},
	}
	if diff := cmp.Diff(expected, results); diff != "" {
		t.Fatal(diff)
	}
}

func TestDocBlocksBeatCappedTable(t *testing.T) {
	// the widget's table renders 2 rows but the page embeds all 5 doc
	// blocks; the full set must win
	html := readFixture(t, "results_docblocks.html")

	results := parseResults(html, 0)
	require.Len(t, results, 5)

	require.Equal(t, "700001", results[0].Id)
	require.Equal(t, "Ayşe Demir", results[0].Author)
	require.Equal(t, 2021, results[0].Year)
	require.Equal(t, "Makine Öğrenmesi ile Metin Sınıflandırma", results[0].Title)
	require.Equal(t, "Text Classification with Machine Learning", results[0].TitleAlt)
	require.Equal(t, "Ankara Üniversitesi", results[0].University)
	require.Equal(t, "Türkçe", results[0].Language)
	require.Equal(t, "Yüksek Lisans", results[0].ThesisType)
	require.Equal(t, "Bilgisayar Mühendisliği", results[0].Subject)

	// year range picks the first 4-digit run
	require.Equal(t, 2019, results[2].Year)
	// unparseable year degrades to zero, the row survives
	require.Equal(t, 0, results[3].Year)
	require.Equal(t, "Can Öztürk", results[3].Author)
}

func TestParseResultsMaxCap(t *testing.T) {
	html := readFixture(t, "results_docblocks.html")

	require.Len(t, parseResults(html, 3), 3)
	require.Len(t, parseResults(html, 0), 5)
}

func TestTotalHits(t *testing.T) {
	require.Equal(t, 5, totalHits(readFixture(t, "results_docblocks.html")))
	require.Equal(t, 0, totalHits("<html><body>hiç sonuç yok</body></html>"))
}

func TestParseRowMissingYear(t *testing.T) {
	html := `<table class="watable"><tbody><tr>
		<td>1</td>
		<td><span onclick="tezDetay('42','x')">42</span></td>
		<td>Fatma Uçar</td>
		<td></td>
		<td>Başlıksız Bir Araştırma</td>
		<td>Yüksek Lisans</td>
	</tr></tbody></table>`

	results := parseResults(html, 10)
	require.Len(t, results, 1)
	require.Equal(t, 0, results[0].Year)
	require.Equal(t, "Başlıksız Bir Araştırma", results[0].Title)
}

func TestParseResultsNoTable(t *testing.T) {
	require.Empty(t, parseResults("<html><body><p>0 kayıt bulundu</p></body></html>", 10))
}

func TestTableSelectorFallback(t *testing.T) {
	// older portal markup without the watable class
	html := `<table id="resulttable"><tbody><tr>
		<td>1</td>
		<td>987</td>
		<td>Kemal Aksoy</td>
		<td>2018</td>
		<td>Eski Düzen Sayfa Yapısı</td>
		<td>Doktora</td>
	</tr></tbody></table>`

	results := parseResults(html, 10)
	require.Len(t, results, 1)
	// plain digit cell text is accepted when no onclick span exists
	require.Equal(t, "987", results[0].Id)
}

func TestExtractRowIdObfuscated(t *testing.T) {
	// encrypted token instead of plain digits and no onclick pattern:
	// the id must be dropped, not passed through
	html := `<table class="watable"><tbody><tr>
		<td>1</td>
		<td><span>nF9x==</span></td>
		<td>Selin Koç</td>
		<td>2017</td>
		<td>Kimliksiz Satır Örneği</td>
		<td>Yüksek Lisans</td>
	</tr></tbody></table>`

	results := parseResults(html, 10)
	require.Len(t, results, 1)
	require.Empty(t, results[0].Id)
	require.Equal(t, "Selin Koç", results[0].Author)
}
