package constants

// Table names
const (
	TableLicenses     = "licenses"
	TableUsageEntries = "license_usage_entries"
	TableProducts     = "products"
	TableBlacklist    = "blacklist_entries"
	TableAPIKeys      = "api_keys"
	TableRequestStats = "request_stats"
	TableCounters     = "counters"
)

// Proxy headers consulted for the caller's real IP, in priority order.
const (
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
)

// Context keys
const (
	ContextKeyAPIKeyID = "api_key_id"
)
