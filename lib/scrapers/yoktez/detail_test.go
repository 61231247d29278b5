package yoktez

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestParseDetailPage(t *testing.T) {
	html := readFixture(t, "detail_page.html")

	detail, ok := parseDetailPage(html, "700001")
	require.True(t, ok)

	require.Equal(t, "700001", detail.Id)
	require.Equal(t, "Makine Öğrenmesi ile Metin Sınıflandırma", detail.Title)
	require.Equal(t, "Ayşe Demir", detail.Author)
	require.Equal(t, "Prof. Dr. Hasan Çelik", detail.Advisor)
	require.Equal(t, 2021, detail.Year)
	require.Equal(t, "Ankara Üniversitesi", detail.University)
	require.Equal(t, "Fen Bilimleri Enstitüsü", detail.Institute)
	require.Equal(t, "Bilgisayar Mühendisliği Ana Bilim Dalı", detail.Department)
	require.Equal(t, "Yüksek Lisans", detail.ThesisType)
	require.Equal(t, "Türkçe", detail.Language)
	require.Equal(t, "124 s.", detail.PageCount)
	require.Contains(t, detail.Keywords, "makine öğrenmesi")
	require.Contains(t, detail.Abstract, "makine öğrenmesi tabanlı bir yöntem")
	require.Contains(t, detail.Purpose, "otomatik sınıflandırma yöntemi")
}

func TestParseDetailPageLowercasedLabels(t *testing.T) {
	// label capitalization drifts; the lowercase fallback must catch it
	html := `<table class="bilgi">
		<tr><td>TEZ ADI:</td><td>Deney Başlığı</td></tr>
		<tr><td>YAZAR:</td><td>Deniz Polat</td></tr>
	</table>`

	detail, ok := parseDetailPage(html, "1")
	require.True(t, ok)
	require.Equal(t, "Deney Başlığı", detail.Title)
	require.Equal(t, "Deniz Polat", detail.Author)
}

func TestParseDetailPageUnknownStructure(t *testing.T) {
	detail, ok := parseDetailPage("<html><body><p>kısa</p></body></html>", "55")

	require.False(t, ok)
	// the minimal record is still well formed
	require.Equal(t, "55", detail.Id)
	require.Equal(t, "Detaylar yüklenemedi", detail.Title)
	require.Equal(t, "Bilinmiyor", detail.Author)
}

func TestParseModalContent(t *testing.T) {
	html := readFixture(t, "modal.html")

	detail, ok := parseModalContent(html, "700002")
	require.True(t, ok)

	require.Equal(t, "700002", detail.Id)
	require.Equal(t, "Doğal Dil İşleme Uygulamaları", detail.Title)
	require.Equal(t, "Mehmet Kaya", detail.Author)
	require.Equal(t, "Prof. Dr. Leyla Aydın", detail.Advisor)
	require.Equal(t, "İstanbul Teknik Üniversitesi", detail.University)
	require.Equal(t, "Fen Bilimleri Enstitüsü", detail.Institute)
	require.Equal(t, "Bilgisayar Mühendisliği Ana Bilim Dalı", detail.Department)
	require.Contains(t, detail.Keywords, "doğal dil işleme")
	require.Equal(t, "Doktora", detail.ThesisType)
	require.Equal(t, "Türkçe", detail.Language)
	require.Equal(t, 2020, detail.Year)
	require.Equal(t, "215 s.", detail.PageCount)
}

func TestAbstractStrategyOrder(t *testing.T) {
	// a dedicated container wins over a labeled row even when both exist
	long := strings.Repeat("çalışma kapsamında elde edilen sonuçlar ", 5)
	html := `<div class="ozet">` + long + `konteyner</div>
		<table><tr><td>Özet</td><td>` + long + `satır</td></tr></table>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	abstract := extractAbstract(doc)
	require.Contains(t, abstract, "konteyner")
	require.NotContains(t, abstract, "satır")
}

func TestAbstractLabeledRowFallback(t *testing.T) {
	long := strings.Repeat("bu çalışmada önerilen yöntem değerlendirilmiştir ", 4)
	html := `<table><tr><td>Özet:</td><td>` + long + `</td></tr></table>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Contains(t, extractAbstract(doc), "önerilen yöntem")
}

func TestAbstractBelowThresholdIgnored(t *testing.T) {
	html := `<div class="ozet">çok kısa özet</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Empty(t, extractAbstract(doc))
}

func TestErrorPageMarker(t *testing.T) {
	require.True(t, containsMarker(readFixture(t, "error_page.html")))
	require.False(t, containsMarker(readFixture(t, "detail_page.html")))
}
