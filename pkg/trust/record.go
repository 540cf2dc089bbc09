package trust

import (
	"strconv"
	"strings"
	"time"
)

// SourceType categorizes where a record was collected from. The type
// selects which field expectations and refresh interval apply.
type SourceType string

const (
	SourceTypeRegulatoryRegistry SourceType = "regulatory-registry"
	SourceTypeCrowdfunding       SourceType = "crowdfunding-platform"
	SourceTypeOpenBankingAPI     SourceType = "open-banking-api"
	SourceTypeCompanyAPI         SourceType = "company-api"
	SourceTypeOther              SourceType = "other"
)

// SourceTypes lists all supported source types.
var SourceTypes = []SourceType{
	SourceTypeRegulatoryRegistry,
	SourceTypeCrowdfunding,
	SourceTypeOpenBankingAPI,
	SourceTypeCompanyAPI,
	SourceTypeOther,
}

// ParseSourceType maps a string to a known SourceType,
// defaulting to SourceTypeOther.
func ParseSourceType(s string) SourceType {
	t := SourceType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SourceTypes {
		if t == known {
			return t
		}
	}
	return SourceTypeOther
}

// SourceRecord is a single scraped snapshot of one data source.
// Records are produced by scraper collaborators and passed by value
// into the audit layer, which never mutates them.
type SourceRecord struct {
	ID          string         `json:"id" yaml:"id"`
	Type        SourceType     `json:"type" yaml:"type"`
	Fields      map[string]any `json:"fields" yaml:"fields"`
	CollectedAt time.Time      `json:"collected_at" yaml:"collectedAt"`
}

// Field returns the named raw field value and whether it carries data.
// Nil values and blank strings count as absent.
func (r SourceRecord) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	if !ok || !present(v) {
		return nil, false
	}
	return v, true
}

// present reports whether a raw field value carries data. Scrapers emit
// nulls and empty strings for fields they could not fill.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

// asString renders a field value for format validation.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// asFloat coerces a field value to a number. JSON decoding delivers all
// numbers as float64, but scrapers occasionally emit numeric strings.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
