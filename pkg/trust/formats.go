package trust

import (
	"net/url"
	"regexp"
	"time"
)

// Format names usable in FieldSpec declarations.
const (
	FormatText     = "text"
	FormatNumber   = "number"
	FormatEmail    = "email"
	FormatURL      = "url"
	FormatPhone    = "phone"
	FormatPostcode = "postcode"
	FormatCurrency = "currency"
	FormatDate     = "date"
	FormatFRN      = "frn"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^(\+44|0)[\d\s\-()]{9,}$`)
	postcodeRegex = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]?\s?[0-9][A-Z]{2}$`)
	currencyRegex = regexp.MustCompile(`^£?[\d,]+(\.\d{2})?$`)
	// FCA firm reference numbers are 6-8 digits.
	frnRegex = regexp.MustCompile(`^\d{6,8}$`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
}

// conforms reports whether a raw field value matches the declared format.
// Values are validated leniently: a field that parses under any accepted
// layout for its format counts as conforming.
func conforms(v any, format string) bool {
	switch format {
	case FormatText:
		s := asString(v)
		return s != ""
	case FormatNumber:
		_, ok := asFloat(v)
		return ok
	case FormatEmail:
		return emailRegex.MatchString(asString(v))
	case FormatURL:
		return validURL(asString(v))
	case FormatPhone:
		return phoneRegex.MatchString(asString(v))
	case FormatPostcode:
		return postcodeRegex.MatchString(asString(v))
	case FormatCurrency:
		if _, ok := asFloat(v); ok {
			return true
		}
		return currencyRegex.MatchString(asString(v))
	case FormatDate:
		return parsableDate(asString(v))
	case FormatFRN:
		return frnRegex.MatchString(asString(v))
	default:
		// Unknown format declarations validate on presence only.
		return present(v)
	}
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func parsableDate(s string) bool {
	if s == "" {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
