package verification

// Outcome is the terminal result of a verification request. Every request
// ends in exactly one outcome; the transport layer encodes it in the body
// and always answers HTTP 200.
type Outcome string

const (
	OutcomeFailedAuthentication     Outcome = "FAILED_AUTHENTICATION"
	OutcomeBlacklisted              Outcome = "BLACKLISTED"
	OutcomeInvalidLicenseKey        Outcome = "INVALID_LICENSEKEY"
	OutcomeExpiredLicenseKey        Outcome = "EXPIRED_LICENSEKEY"
	OutcomeInvalidProduct           Outcome = "INVALID_PRODUCT"
	OutcomeMaximumIPs               Outcome = "MAXIMUM_IPS"
	OutcomeMaximumHWIDs             Outcome = "MAXIMUM_HWIDS"
	OutcomeBlockedCountry           Outcome = "BLOCKED_COUNTRY"
	OutcomeSuccessfulAuthentication Outcome = "SUCCESSFUL_AUTHENTICATION"
)

// Code is the status code paired with the outcome inside the envelope.
func (o Outcome) Code() int {
	switch o {
	case OutcomeFailedAuthentication:
		return 400
	case OutcomeBlacklisted:
		return 403
	case OutcomeExpiredLicenseKey:
		return 410
	case OutcomeSuccessfulAuthentication:
		return 200
	default:
		return 401
	}
}

// Overview is the coarse success/failed marker of the envelope.
func (o Outcome) Overview() string {
	if o == OutcomeSuccessfulAuthentication {
		return "success"
	}
	return "failed"
}

// Success reports whether the outcome admits the request.
func (o Outcome) Success() bool {
	return o == OutcomeSuccessfulAuthentication
}
