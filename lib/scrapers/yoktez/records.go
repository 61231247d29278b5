package yoktez

import (
	"encoding/hex"
	"strconv"
	"strings"

	"lukechampine.com/blake3"
)

// ThesisSummary is one row of a search result. A zero Year or an empty
// string field means the portal did not render that value, not that the
// value is confirmed empty. Id may be missing entirely when the portal
// renders only encrypted tokens instead of plain digits.
type ThesisSummary struct {
	Id         string `json:"thesis_id,omitempty"`
	Author     string `json:"author"`
	Year       int    `json:"year,omitempty"`
	Title      string `json:"title"`
	// secondary-language title, present only in doc-block rows
	TitleAlt   string `json:"title_alt,omitempty"`
	ThesisType string `json:"thesis_type,omitempty"`
	University string `json:"university,omitempty"`
	Language   string `json:"language,omitempty"`
	Subject    string `json:"subject,omitempty"`
}

// ThesisDetail is everything recoverable for a single thesis.
type ThesisDetail struct {
	ThesisSummary
	Advisor    string `json:"advisor,omitempty"`
	CoAdvisor  string `json:"co_advisor,omitempty"`
	Institute  string `json:"institute,omitempty"`
	Department string `json:"department,omitempty"`
	PageCount  string `json:"page_count,omitempty"`
	Keywords   string `json:"keywords,omitempty"`
	Abstract   string `json:"abstract,omitempty"`
	Purpose    string `json:"purpose,omitempty"`
}

// Field selects which portal input a search term goes into.
type Field string

const (
	FieldAll     Field = "all"
	FieldTitle   Field = "title"
	FieldAuthor  Field = "author"
	FieldAdvisor Field = "advisor"
	FieldSubject Field = "subject"
	FieldId      Field = "id"
)

// ThesisType values are the portal's own numeric codes for the "Tur"
// dropdown.
type ThesisType string

const (
	TypeMasters      ThesisType = "yuksek_lisans"
	TypeDoctorate    ThesisType = "doktora"
	TypeSpecialty    ThesisType = "tipta_uzmanlik"
	TypeProficiency  ThesisType = "sanatta_yeterlik"
)

var thesisTypeCodes = map[ThesisType]string{
	TypeMasters:     "1",
	TypeDoctorate:   "2",
	TypeSpecialty:   "3",
	TypeProficiency: "4",
}

// Permission is the portal's full-text access filter.
type Permission string

const (
	PermissionGranted Permission = "izinli"
	PermissionDenied  Permission = "izinsiz"
)

var permissionCodes = map[Permission]string{
	PermissionGranted: "1",
	PermissionDenied:  "0",
}

// SearchQuery is a logical search request. The zero value of every field
// other than Term means "no filter"; absent filters are never sent to the
// portal at all.
type SearchQuery struct {
	Term       string
	Field      Field
	YearStart  int
	YearEnd    int
	Type       ThesisType
	University string
	Language   string
	Permission Permission
	// MaxResults truncates the normalized result set, 0 means no cap
	MaxResults int
}

// CacheKey digests the operation name and every parameter in a fixed
// order, so two logical queries that differ only in call-site formatting
// share a cache slot.
func (q SearchQuery) CacheKey() string {
	return cacheKey(
		"search",
		q.Term,
		string(q.Field),
		strconv.Itoa(q.YearStart),
		strconv.Itoa(q.YearEnd),
		string(q.Type),
		q.University,
		q.Language,
		string(q.Permission),
		strconv.Itoa(q.MaxResults),
	)
}

// every parameter keeps its slot in the digested string, absent ones
// included; skipping them would let a value shift into a neighboring
// parameter's position and collide with a different query
func cacheKey(op string, params ...string) string {
	var b strings.Builder
	b.WriteString(op)
	for _, p := range params {
		b.WriteString(":")
		b.WriteString(p)
	}
	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
