package yoktez

import (
	"net/url"
	"strconv"
)

// The portal serves two independent search forms that post to the same
// results endpoint: "detailed" (tabs-1, one input per attribute) and
// "advanced" (tabs-2, up to three keyword/operator pairs). Field names
// differ between the two, so the builder picks the form first and maps
// names second.

// detailed-form input names by logical field
var detailedFieldNames = map[Field]string{
	FieldTitle:   "TezAd",
	FieldAuthor:  "AdSoyad",
	FieldAdvisor: "DanismanAdSoyad",
	FieldSubject: "Dizin",
	FieldId:      "TezNo",
}

// Operator chains keywords in the advanced form.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"
)

// AdvancedQuery is the advanced form's keyword chain plus the shared
// filter set. Keywords beyond the first are skipped when empty.
type AdvancedQuery struct {
	Keyword1  string
	Operator2 Operator
	Keyword2  string
	Operator3 Operator
	Keyword3  string

	YearStart  int
	YearEnd    int
	Type       ThesisType
	Language   string
	Permission Permission
	MaxResults int
}

func (q AdvancedQuery) CacheKey() string {
	return cacheKey(
		"advanced",
		q.Keyword1,
		string(q.Operator2), q.Keyword2,
		string(q.Operator3), q.Keyword3,
		strconv.Itoa(q.YearStart),
		strconv.Itoa(q.YearEnd),
		string(q.Type),
		q.Language,
		string(q.Permission),
		strconv.Itoa(q.MaxResults),
	)
}

// setIfPresent adds a form key only when the value is non-empty. The
// portal treats a present-but-empty filter differently from an absent
// one, so empty values must never be sent.
func setIfPresent(form url.Values, key, value string) {
	if value == "" {
		return
	}
	form.Set(key, value)
}

func setSharedFilters(form url.Values, yearStart, yearEnd int, typ ThesisType, university, language string, permission Permission) {
	if yearStart > 0 {
		form.Set("yil1", strconv.Itoa(yearStart))
	}
	if yearEnd > 0 {
		form.Set("yil2", strconv.Itoa(yearEnd))
	}
	setIfPresent(form, "Tur", thesisTypeCodes[typ])
	setIfPresent(form, "uniad", university)
	setIfPresent(form, "Dil", language)
	setIfPresent(form, "izin", permissionCodes[permission])
}

// buildSearchForm maps a SearchQuery onto the portal's form names. A
// FieldAll (or unknown) field routes through the advanced form's single
// keyword input, which is the portal's broadest search; every other field
// uses the detailed form.
func buildSearchForm(q SearchQuery) url.Values {
	form := url.Values{}
	form.Set("-find", "Bul")
	form.Set("submitted", "1")

	name, ok := detailedFieldNames[q.Field]
	if !ok {
		name = "keyword"
	}
	form.Set(name, q.Term)

	setSharedFilters(form, q.YearStart, q.YearEnd, q.Type, q.University, q.Language, q.Permission)
	return form
}

// buildAdvancedForm maps the keyword chain onto the advanced form. The
// portal numbers its inputs keyword/keyword1/keyword2 with operators
// ops_field/ops_field1 between them.
func buildAdvancedForm(q AdvancedQuery) url.Values {
	form := url.Values{}
	form.Set("-find", "Bul")
	form.Set("submitted", "1")

	setIfPresent(form, "keyword", q.Keyword1)
	if q.Keyword2 != "" {
		setIfPresent(form, "ops_field", string(q.Operator2))
		form.Set("keyword1", q.Keyword2)
	}
	if q.Keyword3 != "" {
		setIfPresent(form, "ops_field1", string(q.Operator3))
		form.Set("keyword2", q.Keyword3)
	}

	setSharedFilters(form, q.YearStart, q.YearEnd, q.Type, "", q.Language, q.Permission)
	return form
}

// buildRecentForm targets the "recently added" tab, whose only input is a
// day count.
func buildRecentForm(days int) url.Values {
	form := url.Values{}
	form.Set("-find", "Bul")
	form.Set("submitted", "1")
	form.Set("gun", strconv.Itoa(days))
	return form
}
