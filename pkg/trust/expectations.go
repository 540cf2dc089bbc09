package trust

import "time"

// RefreshIntervalDefault is assumed when a source type has no declared
// refresh cadence. Most of the tracked registries publish monthly.
const RefreshIntervalDefault = 30 * 24 * time.Hour

// FieldSpec names a field a scraper is expected to fill for a given
// source type, plus the format it should conform to (see formats.go).
type FieldSpec struct {
	Name   string `json:"name" yaml:"name"`
	Format string `json:"format" yaml:"format"`
}

// Expectations describes what a well-behaved source of each type should
// look like. Loaded once from configuration and treated as read-only for
// the lifetime of a run.
type Expectations struct {
	Fields  map[SourceType][]FieldSpec
	Refresh map[SourceType]time.Duration
}

// ExpectedFields returns the field specs for a source type, falling back
// to the generic set so an unmapped type still gets audited.
func (e Expectations) ExpectedFields(t SourceType) []FieldSpec {
	if specs, ok := e.Fields[t]; ok && len(specs) > 0 {
		return specs
	}
	return e.Fields[SourceTypeOther]
}

// RefreshInterval returns the expected refresh interval for a source type.
func (e Expectations) RefreshInterval(t SourceType) time.Duration {
	if d, ok := e.Refresh[t]; ok && d > 0 {
		return d
	}
	if d, ok := e.Refresh[SourceTypeOther]; ok && d > 0 {
		return d
	}
	return RefreshIntervalDefault
}

// DefaultExpectations mirrors the field inventories of the reference
// scrapers (FCA register, equity crowdfunding platforms, open banking
// directories). Overridable via the scoring config file.
func DefaultExpectations() Expectations {
	return Expectations{
		Fields: map[SourceType][]FieldSpec{
			SourceTypeRegulatoryRegistry: {
				{Name: "name", Format: FormatText},
				{Name: "frn", Format: FormatFRN},
				{Name: "status", Format: FormatText},
				{Name: "url", Format: FormatURL},
				{Name: "email", Format: FormatEmail},
				{Name: "phone", Format: FormatPhone},
				{Name: "postcode", Format: FormatPostcode},
				{Name: "effective_date", Format: FormatDate},
			},
			SourceTypeCrowdfunding: {
				{Name: "name", Format: FormatText},
				{Name: "url", Format: FormatURL},
				{Name: "description", Format: FormatText},
				{Name: "target_amount", Format: FormatCurrency},
				{Name: "raised_amount", Format: FormatCurrency},
				{Name: "investor_count", Format: FormatNumber},
				{Name: "campaign_end", Format: FormatDate},
				{Name: "email", Format: FormatEmail},
			},
			SourceTypeOpenBankingAPI: {
				{Name: "name", Format: FormatText},
				{Name: "url", Format: FormatURL},
				{Name: "api_version", Format: FormatText},
				{Name: "documentation_url", Format: FormatURL},
				{Name: "last_updated", Format: FormatDate},
				{Name: "status", Format: FormatText},
			},
			SourceTypeCompanyAPI: {
				{Name: "name", Format: FormatText},
				{Name: "url", Format: FormatURL},
				{Name: "company_number", Format: FormatNumber},
				{Name: "incorporated_on", Format: FormatDate},
				{Name: "status", Format: FormatText},
				{Name: "postcode", Format: FormatPostcode},
			},
			SourceTypeOther: {
				{Name: "name", Format: FormatText},
				{Name: "url", Format: FormatURL},
				{Name: "description", Format: FormatText},
				{Name: "last_updated", Format: FormatDate},
			},
		},
		Refresh: map[SourceType]time.Duration{
			SourceTypeRegulatoryRegistry: 7 * 24 * time.Hour,
			SourceTypeCrowdfunding:       24 * time.Hour,
			SourceTypeOpenBankingAPI:     30 * 24 * time.Hour,
			SourceTypeCompanyAPI:         30 * 24 * time.Hour,
			SourceTypeOther:              RefreshIntervalDefault,
		},
	}
}
