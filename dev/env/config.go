package devenv

// PortalTestConfig drives the optional live-portal tests. The tests skip
// themselves when no dev/.state/portal.json5 exists, so CI never touches
// the real registry.
type PortalTestConfig struct {
	BaseUrl string `json:"base_url"`
	// a thesis known to resolve through the direct detail page
	KnownThesisId string `json:"known_thesis_id"`
	// a query expected to return at least one row
	KnownQuery string `json:"known_query"`
}
