package devenv

// LiveConfigPath is the state file opt-in tests against the real eBay site
// read, relative to dev/.state.
const LiveConfigPath = "ebay_live.json5"

type LiveConfig struct {
	// an existing eBay user with a public feedback profile
	Username string `json:"username"`
	// overrides ebay.DefaultBaseUrl
	BaseUrl          string `json:"base_url"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}
