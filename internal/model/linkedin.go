package model

// Sentinel values for the LinkedIn output columns.
const (
	ProxyDirect      = "Direct"
	ProxyNone        = "None"
	LinkedInNotFound = "Not Found"
	LinkedInError    = "Error"
)

// LinkedInResult is one website's LinkedIn company-page lookup outcome.
type LinkedInResult struct {
	Website     string `json:"website"`
	LinkedInURL string `json:"linkedin_url"`
	ProxyUsed   string `json:"proxy_used"`
}

// LinkedInHeader is the output column order for linkedin results.
var LinkedInHeader = []string{"Website", "LinkedIn URL", "Proxy Used"}

// CSVRow renders the result in LinkedInHeader order.
func (r LinkedInResult) CSVRow() []string {
	return []string{r.Website, r.LinkedInURL, r.ProxyUsed}
}

// Found reports whether the lookup produced a real URL rather than a
// sentinel value.
func (r LinkedInResult) Found() bool {
	return r.LinkedInURL != "" && r.LinkedInURL != LinkedInNotFound && r.LinkedInURL != LinkedInError
}
