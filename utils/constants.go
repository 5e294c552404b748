package utils

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Cache key suffixes, namespaced by the configured Redis prefix at call sites
const (
	// TrustedIPCacheKey is the key family for firewall-trusted IP markers
	TrustedIPCacheKey = "fw:trusted"

	// AccountRosterCacheKey caches the admin account roster export source
	AccountRosterCacheKey = "admin:account:roster"
)

// Provisioning constants
const (
	// SIPSecretLength is the length of generated SIP secrets
	SIPSecretLength = 16
)
