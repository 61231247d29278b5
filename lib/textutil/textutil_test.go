package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYear(t *testing.T) {
	cases := []struct {
		input  string
		year   int
		wantOk bool
	}{
		{input: "2023", year: 2023, wantOk: true},
		{input: "2019-2020", year: 2019, wantOk: true},
		{input: "invalid", wantOk: false},
		{input: "1950", wantOk: false},
		{input: "", wantOk: false},
		{input: "2031", wantOk: false},
		{input: "1980", year: 1980, wantOk: true},
		{input: " 2005 ", year: 2005, wantOk: true},
		{input: "yıl: 2012", year: 2012, wantOk: true},
		{input: "123", wantOk: false},
	}

	for _, test := range cases {
		year, ok := ParseYear(test.input)
		require.Equal(t, test.wantOk, ok, "input %q", test.input)
		if test.wantOk {
			require.Equal(t, test.year, year, "input %q", test.input)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		{input: "  Derin   Öğrenme\n\tYöntemleri ", expect: "Derin Öğrenme Yöntemleri"},
		{input: "tek", expect: "tek"},
		{input: "\n\n", expect: ""},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, CollapseSpace(test.input))
	}
}

func TestLowerTurkish(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		{input: "İZİN", expect: "izin"},
		{input: "DIZIN", expect: "dızın"},
		{input: "Özet", expect: "özet"},
		{input: "YÜKSEK LİSANS", expect: "yüksek lisans"},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, LowerTurkish(test.input))
	}
}

func TestStripTags(t *testing.T) {
	in := `Deep Learning Methods<br><span class="alt">Derin Öğrenme Yöntemleri</span>`
	require.Equal(t, "Deep Learning MethodsDerin Öğrenme Yöntemleri", StripTags(in))
}

func TestNormalizeName(t *testing.T) {
	a := NormalizeName("ORTA DOĞU TEKNİK ÜNİVERSİTESİ")
	b := NormalizeName("Orta Doğu Teknik Üniversitesi")
	require.Equal(t, a, b)
}
