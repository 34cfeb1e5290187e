package utils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bitmark-inc/covid-trends/consts"
)

// TwCountyKey - convert chinese tw county name into key
func TwCountyKey(county string) (string, error) {
	zh := strings.Replace(strings.TrimSpace(county), "臺", "台", -1)
	if en, ok := consts.TwCountyEnglish[zh]; !ok {
		return county, fmt.Errorf("%s not exist", county)
	} else {
		return EnNameToKey(en), nil
	}
}

// EnNameToKey - normalize *english* area name into all small case with
// underscore, e.g. "Harris County, Texas" becomes harris_county_texas
func EnNameToKey(str string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(str)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		if r != '\'' && r != '.' {
			pending = true
		}
	}
	return b.String()
}
