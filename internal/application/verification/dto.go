package verification

// VerifyRequest is the normalized input of a verification call. IP is the
// already-resolved caller address; HWID and Version are optional.
type VerifyRequest struct {
	ProductName string
	LicenseKey  string
	HWID        string
	Version     string
	IP          string
}

// VerifyResult carries the outcome plus the success-only response fields.
type VerifyResult struct {
	Outcome Outcome

	// Populated only on SUCCESSFUL_AUTHENTICATION.
	Token           string
	Description     string
	Version         string
	Clientname      string
	DiscordUsername string
	DiscordID       string
	Expires         string
}

func failure(o Outcome) *VerifyResult {
	return &VerifyResult{Outcome: o}
}
