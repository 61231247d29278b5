package yoktez

import (
	"log/slog"
	"regexp"
	"strings"

	"yoktez-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// The portal delivers results in two shapes at once: a grid widget that
// renders at most 30 rows into a static table, and the widget's full data
// source embedded in page scripts as repeated `var doc = {...};
// rows.push(doc);` statements. The doc blocks are strictly more complete,
// so they win whenever they parse; the table is the fallback for pages
// the widget never touched.

// results-table selectors in decreasing order of specificity; the portal
// has shipped all of these class names at one point or another
var resultTableSelectors = []string{
	"table.watable",
	"table.table-striped",
	"table.tablo",
	"table#resulttable",
}

var (
	docBlockRegex  = regexp.MustCompile(`(?s)var\s+doc\s*=\s*\{(.*?)\};\s*rows\.push\(doc\)`)
	spanIdRegex    = regexp.MustCompile(`>(\d+)</span>`)
	onclickIdRegex = regexp.MustCompile(`tezDetay\('(\d+)'`)
	totalHitsRegex = regexp.MustCompile(`(\d+)\s*kayıt bulundu`)
)

// obfuscated doc-block keys, fixed by the portal's grid configuration:
// userId holds the clickable id span, name the author, age the year,
// weight the title (possibly "TITLE<br><span>ALT TITLE</span>"), uni the
// university, height the language, important the thesis type and
// someDate the subject heading.
var docFieldRegexes = map[string]*regexp.Regexp{
	"name":      docValueRegex("name"),
	"age":       docValueRegex("age"),
	"uni":       docValueRegex("uni"),
	"height":    docValueRegex("height"),
	"important": docValueRegex("important"),
	"someDate":  docValueRegex("someDate"),
}

var docTitleRegex = regexp.MustCompile(`(?s)weight\s*:\s*"(.*?)",?\s*\n`)

func docValueRegex(key string) *regexp.Regexp {
	return regexp.MustCompile(key + `\s*:\s*"([^"]*)"`)
}

func docField(block, key string) string {
	groups := docFieldRegexes[key].FindStringSubmatch(block)
	if len(groups) < 2 {
		return ""
	}
	return textutil.CollapseSpace(groups[1])
}

// parseResults extracts summaries from a results page, preferring the
// embedded doc blocks over the capped table. maxResults of 0 means no
// cap. Rows that yield neither a title nor an id are dropped; everything
// else is emitted however partial.
func parseResults(html string, maxResults int) []ThesisSummary {
	results := parseDocBlocks(html)
	if len(results) == 0 {
		results = parseResultTable(html)
	}
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// totalHits reads the portal's "N kayıt bulundu" banner, 0 when absent.
func totalHits(html string) int {
	groups := totalHitsRegex.FindStringSubmatch(html)
	if len(groups) < 2 {
		return 0
	}
	n, _ := atoiSafe(groups[1])
	return n
}

func atoiSafe(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func parseDocBlocks(html string) []ThesisSummary {
	blocks := docBlockRegex.FindAllStringSubmatch(html, -1)
	if len(blocks) == 0 {
		return nil
	}

	results := make([]ThesisSummary, 0, len(blocks))
	for _, groups := range blocks {
		block := groups[1]

		row := ThesisSummary{
			Author:     docField(block, "name"),
			University: docField(block, "uni"),
			Language:   docField(block, "height"),
			ThesisType: docField(block, "important"),
			Subject:    docField(block, "someDate"),
		}
		if idGroups := spanIdRegex.FindStringSubmatch(block); len(idGroups) >= 2 {
			row.Id = idGroups[1]
		}
		if year, ok := textutil.ParseYear(docField(block, "age")); ok {
			row.Year = year
		}

		if titleGroups := docTitleRegex.FindStringSubmatch(block); len(titleGroups) >= 2 {
			raw := titleGroups[1]
			primary, alt, split := strings.Cut(raw, "<br>")
			row.Title = textutil.CollapseSpace(textutil.StripTags(primary))
			if split {
				row.TitleAlt = textutil.CollapseSpace(textutil.StripTags(alt))
			}
		}

		if row.Title == "" && row.Id == "" {
			continue
		}
		results = append(results, row)
	}
	return results
}

func parseResultTable(html string) []ThesisSummary {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("results page is not parseable html", "err", err)
		return nil
	}

	var table *goquery.Selection
	for _, selector := range resultTableSelectors {
		found := doc.Find(selector)
		if found.Length() > 0 {
			table = found.First()
			break
		}
	}
	if table == nil {
		slog.Warn("no known results table selector matched")
		return nil
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		return nil
	}

	var results []ThesisSummary
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 6 {
			return
		}

		// cells: 0=row number, 1=id span, 2=author, 3=year, 4=title, 5=type
		row := ThesisSummary{
			Author:     textutil.CollapseSpace(cells.Eq(2).Text()),
			Title:      textutil.CollapseSpace(cells.Eq(4).Text()),
			ThesisType: textutil.CollapseSpace(cells.Eq(5).Text()),
		}
		if year, ok := textutil.ParseYear(cells.Eq(3).Text()); ok {
			row.Year = year
		}
		row.Id = extractRowId(cells.Eq(1))

		if row.Title == "" && row.Id == "" {
			return
		}
		results = append(results, row)
	})
	return results
}

// extractRowId pulls the thesis id out of a table cell. The id lives as
// digits inside the span's inline onclick handler; the visible cell text
// is only trusted when it is plain digits, since the portal sometimes
// renders encrypted tokens there instead.
func extractRowId(cell *goquery.Selection) string {
	onclick := cell.Find("span").AttrOr("onclick", "")
	if groups := onclickIdRegex.FindStringSubmatch(onclick); len(groups) >= 2 {
		return groups[1]
	}

	text := textutil.CollapseSpace(cell.Text())
	if _, ok := atoiSafe(text); ok && text != "" {
		return text
	}
	return ""
}
