package yoktez

import (
	"log/slog"
	"regexp"
	"strings"

	"yoktez-backend/lib/htmlutil"
	"yoktez-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Detail pages and the result modal label fields in Turkish with a
// trailing colon. The canonical map is matched case-sensitively first;
// a Turkish-lowercased map catches pages where the portal changed
// capitalization.

var detailLabels = map[string]string{
	"Tez No":            "id",
	"Tez Adı":           "title",
	"Yazar":             "author",
	"Danışman":          "advisor",
	"Eş Danışman":       "co_advisor",
	"Yıl":               "year",
	"Üniversite":        "university",
	"Enstitü":           "institute",
	"Anabilim Dalı":     "department",
	"Tez Türü":          "thesis_type",
	"Dil":               "language",
	"Sayfa Sayısı":      "page_count",
	"Anahtar Kelimeler": "keywords",
	"Dizin":             "keywords",
}

var detailLabelsLower = func() map[string]string {
	out := make(map[string]string, len(detailLabels))
	for label, field := range detailLabels {
		out[textutil.LowerTurkish(label)] = field
	}
	return out
}()

// containers the portal has used for the detail field table, most
// specific first
var detailContainerSelectors = []string{
	"table.bilgi",
	"div.thesis-detail",
	"table[class*=tablo]",
	"#iceriktablo",
}

// errorPageMarker is the literal text of the portal's generic failure
// page, returned with status 200 when a direct detail url is rejected.
const errorPageMarker = "BEKLENMEDİK BİR HATA"

func canonicalField(label string) string {
	label = strings.TrimSuffix(textutil.CollapseSpace(label), ":")
	if field, ok := detailLabels[label]; ok {
		return field
	}
	if field, ok := detailLabelsLower[textutil.LowerTurkish(label)]; ok {
		return field
	}
	return ""
}

func (d *ThesisDetail) setField(field, value string) {
	if value == "" {
		return
	}
	switch field {
	case "id":
		d.Id = value
	case "title":
		d.Title = value
	case "author":
		d.Author = value
	case "advisor":
		d.Advisor = value
	case "co_advisor":
		d.CoAdvisor = value
	case "year":
		if year, ok := textutil.ParseYear(value); ok {
			d.Year = year
		}
	case "university":
		d.University = value
	case "institute":
		d.Institute = value
	case "department":
		d.Department = value
	case "thesis_type":
		d.ThesisType = value
	case "language":
		d.Language = value
	case "page_count":
		d.PageCount = value
	case "keywords":
		d.Keywords = value
	}
}

// minimalDetail is the record of last resort: the placeholders tell the
// caller the portal was unreachable without breaking the ThesisDetail
// shape.
func minimalDetail(id string) ThesisDetail {
	return ThesisDetail{
		ThesisSummary: ThesisSummary{
			Id:     id,
			Title:  "Detaylar yüklenemedi",
			Author: "Bilinmiyor",
		},
	}
}

// parseDetailPage extracts a full record from a directly fetched detail
// page. The second return reports whether any known structure matched at
// all; a false means the caller should try another retrieval strategy.
func parseDetailPage(html string, id string) (ThesisDetail, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return minimalDetail(id), false
	}

	detail := ThesisDetail{ThesisSummary: ThesisSummary{Id: id}}
	matched := false

	var container *goquery.Selection
	for _, selector := range detailContainerSelectors {
		found := doc.Find(selector)
		if found.Length() > 0 {
			container = found.First()
			break
		}
	}
	if container != nil {
		container.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			field := canonicalField(cells.Eq(0).Text())
			if field == "" {
				return
			}
			detail.setField(field, textutil.CollapseSpace(cells.Eq(1).Text()))
			matched = true
		})
	} else {
		slog.Warn("no known detail container matched", "thesis_id", id)
	}

	if abstract := extractAbstract(doc); abstract != "" {
		detail.Abstract = abstract
		matched = true
	}
	if purpose := extractPurpose(doc); purpose != "" {
		detail.Purpose = purpose
	}

	if !matched {
		return minimalDetail(id), false
	}
	// the page may override the id we navigated with; keep ours
	detail.Id = id
	return detail, true
}

// parseModalContent extracts a record from the result modal's inner html.
// The modal has no labeled table: the third cell of its renkp row carries
// title and "Label: value" lines separated by <br>, and the fourth cell
// is a bare status column (type, language, year, page count) recognized
// by shape.
func parseModalContent(html string, id string) (ThesisDetail, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return minimalDetail(id), false
	}

	detail := ThesisDetail{ThesisSummary: ThesisSummary{Id: id}}
	matched := false

	cells := doc.Find("tr.renkp td")
	if cells.Length() == 0 {
		cells = doc.Find("td[valign=top]")
	}

	if cells.Length() >= 3 {
		lines := htmlutil.GetLines(cells.Eq(2))
		if len(lines) > 0 {
			title, _, _ := strings.Cut(lines[0], " / ")
			detail.Title = textutil.CollapseSpace(title)
			matched = detail.Title != ""
		}
		for _, line := range lines[min(1, len(lines)):] {
			label, value, found := strings.Cut(line, ":")
			if !found {
				continue
			}
			value = textutil.CollapseSpace(value)
			switch textutil.LowerTurkish(textutil.CollapseSpace(label)) {
			case "yazar":
				detail.Author = value
			case "danışman":
				detail.Advisor = value
			case "eş danışman":
				detail.CoAdvisor = value
			case "dizin":
				detail.Keywords = value
			case "yer bilgisi":
				// "University / Institute / Department"
				parts := strings.Split(value, "/")
				if len(parts) >= 1 {
					detail.University = textutil.CollapseSpace(parts[0])
				}
				if len(parts) >= 2 {
					detail.Institute = textutil.CollapseSpace(parts[1])
				}
				if len(parts) >= 3 {
					detail.Department = textutil.CollapseSpace(parts[2])
				}
			}
		}
	}

	if cells.Length() >= 4 {
		for _, line := range htmlutil.GetLines(cells.Eq(3)) {
			line = textutil.CollapseSpace(line)
			switch {
			case strings.Contains(line, "Doktora"),
				strings.Contains(line, "Yüksek Lisans"),
				strings.Contains(line, "Tıpta Uzmanlık"),
				strings.Contains(line, "Sanatta Yeterlik"):
				detail.ThesisType = line
			case strings.Contains(line, "Türkçe"), strings.Contains(line, "İngilizce"):
				detail.Language = line
			case strings.Contains(line, "s."):
				detail.PageCount = line
			default:
				if year, ok := textutil.ParseYear(line); ok && len(line) == 4 {
					detail.Year = year
				}
			}
		}
	}

	if abstract := extractAbstract(doc); abstract != "" {
		detail.Abstract = abstract
	}

	if !matched {
		return minimalDetail(id), false
	}
	return detail, true
}

const (
	minAbstractLength = 100
	minPurposeLength  = 30
	maxPurposeLength  = 500
)

// abstract extraction strategies in priority order; the first one that
// clears the length threshold wins and later ones never run
type textStrategy struct {
	name    string
	extract func(doc *goquery.Document) string
}

var abstractStrategies = []textStrategy{
	{"container", abstractFromContainer},
	{"labeled-row", abstractFromLabeledRow},
	{"label-regex", abstractFromRegex},
	{"heuristic", abstractFromHeuristic},
}

func extractAbstract(doc *goquery.Document) string {
	for _, strategy := range abstractStrategies {
		text := strategy.extract(doc)
		if len(text) >= minAbstractLength {
			slog.Debug("abstract extracted", "strategy", strategy.name)
			return text
		}
	}
	return ""
}

var abstractContainerSelectors = []string{
	"div.ozet", "p.ozet", "section.ozet", "#ozet",
	"div.abstract", "p.abstract", "section.abstract", "#abstract",
}

func abstractFromContainer(doc *goquery.Document) string {
	for _, selector := range abstractContainerSelectors {
		found := doc.Find(selector)
		if found.Length() > 0 {
			return textutil.CollapseSpace(found.First().Text())
		}
	}
	return ""
}

func abstractFromLabeledRow(doc *goquery.Document) string {
	var out string
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		label := textutil.LowerTurkish(textutil.CollapseSpace(cells.Eq(0).Text()))
		if !strings.Contains(label, "özet") && !strings.Contains(label, "abstract") {
			return true
		}
		out = textutil.CollapseSpace(cells.Eq(1).Text())
		return false
	})
	return out
}

var abstractLabelRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:Türkçe\s+)?Özet\s*:?\s*(.+?)(?:\n\s*(?:İngilizce|Abstract|Amaç)|\z)`),
	regexp.MustCompile(`(?is)(?:Turkish\s+)?Abstract\s*:?\s*(.+?)(?:\n\s*(?:English|Özet|Purpose)|\z)`),
}

func abstractFromRegex(doc *goquery.Document) string {
	text := doc.Text()
	for _, re := range abstractLabelRegexes {
		groups := re.FindStringSubmatch(text)
		if len(groups) >= 2 {
			return textutil.CollapseSpace(groups[1])
		}
	}
	return ""
}

// keywords that mark a long paragraph as plausibly being the abstract
var abstractHintWords = []string{
	"çalışma", "yöntem", "sonuç", "amaç",
	"study", "method", "results",
}

func abstractFromHeuristic(doc *goquery.Document) string {
	var out string
	doc.Find("p, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Children().Length() > 2 {
			return true
		}
		text := textutil.CollapseSpace(sel.Text())
		if len(text) < minAbstractLength*3 {
			return true
		}
		lower := textutil.LowerTurkish(text)
		for _, word := range abstractHintWords {
			if strings.Contains(lower, word) {
				out = text
				return false
			}
		}
		return true
	})
	return out
}

var purposeRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:Çalışmanın\s+)?Amaç[ıi]?\s*:\s*(.+?)(?:\n\s*(?:Yöntem|Gereç|Method)|\z)`),
	regexp.MustCompile(`(?is)Purpose\s*:\s*(.+?)(?:\n\s*(?:Method|Material)|\z)`),
}

func extractPurpose(doc *goquery.Document) string {
	var fromRow string
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		label := textutil.LowerTurkish(textutil.CollapseSpace(cells.Eq(0).Text()))
		if !strings.Contains(label, "amaç") && !strings.Contains(label, "purpose") {
			return true
		}
		fromRow = textutil.CollapseSpace(cells.Eq(1).Text())
		return false
	})
	if len(fromRow) >= minPurposeLength {
		return clampPurpose(fromRow)
	}

	text := doc.Text()
	for _, re := range purposeRegexes {
		groups := re.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		candidate := textutil.CollapseSpace(groups[1])
		if len(candidate) >= minPurposeLength {
			return clampPurpose(candidate)
		}
	}
	return ""
}

func clampPurpose(s string) string {
	runes := []rune(s)
	if len(runes) > maxPurposeLength {
		return string(runes[:maxPurposeLength])
	}
	return s
}
