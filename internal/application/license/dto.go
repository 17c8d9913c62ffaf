package license

import "time"

// CreateLicenseInput carries the dev API create payload after binding.
type CreateLicenseInput struct {
	Product             string
	Clientname          string
	DiscordID           *string
	Description         *string
	Expires             bool
	ExpiresType         string // "days", "date" or "times"
	ExpiresDays         int
	ExpiresDate         string // MM/DD/YYYY
	ExpiresTimes        uint64
	ExpiresStartOnFirst bool
	ExpiresDeleteAfter  bool
	IPCap               *int
	IPExpires           *int // retention in seconds
	HWIDCap             *int
	HWIDExpires         *int
	GeoLock             *string
	PreloadedIPs        []string
	CreatedBy           string
}

// ListFilter narrows the dev API license listing; zero values match all.
type ListFilter struct {
	LicenseKey  string
	Clientname  string
	ProductName string
}

// LicenseDTO is the dev API representation of a license. LicenseKey holds
// the decrypted plaintext; it is returned to the operator only.
type LicenseDTO struct {
	LicenseID           string     `json:"license_id"`
	LicenseKey          string     `json:"licensekey"`
	ProductName         string     `json:"product_name"`
	Clientname          string     `json:"clientname"`
	DiscordID           *string    `json:"discord_id"`
	Description         *string    `json:"description"`
	Expires             bool       `json:"expires"`
	ExpiresType         string     `json:"expires_type,omitempty"`
	ExpiresDate         *time.Time `json:"expires_date,omitempty"`
	ExpiresDays         int        `json:"expires_days,omitempty"`
	ExpiresTimes        uint64     `json:"expires_times,omitempty"`
	ExpiresStartOnFirst bool       `json:"expires_start_on_first,omitempty"`
	ExpiresDeleteAfter  bool       `json:"expires_delete_after,omitempty"`
	IPCap               *int       `json:"ip_cap"`
	IPExpires           *int       `json:"ip_expires"`
	HWIDCap             *int       `json:"hwid_cap"`
	HWIDExpires         *int       `json:"hwid_expires"`
	GeoLock             *string    `json:"ip_geo_lock"`
	TotalRequests       uint64     `json:"total_requests"`
	LatestIP            *string    `json:"latest_ip"`
	LatestHWID          *string    `json:"latest_hwid"`
	LatestRequest       *time.Time `json:"latest_request"`
	CreatedBy           string     `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
}
