package storage

import "time"

// NewDomainData returns an empty per-domain record. Every accessor that
// needs a fallback uses this factory so the empty shape is defined in
// exactly one place.
func NewDomainData() *DomainData {
	return &DomainData{
		Sessions:   []Session{},
		DailyStats: map[string]time.Duration{},
	}
}

// DefaultSettings returns the settings written on first initialization.
func DefaultSettings() Settings {
	return Settings{
		PillPosition:      PillTopRight,
		PillVisibility:    true,
		DataRetentionDays: 30,
		ExcludedDomains:   DefaultExcludedDomains(),
	}
}

// DefaultExcludedDomains returns domains that should never accrue tracked
// time: banking, password managers, authentication providers, and other
// sensitive services.
func DefaultExcludedDomains() []string {
	return []string{
		// Banking & Financial
		"chase.com",
		"bankofamerica.com",
		"wellsfargo.com",
		"capitalone.com",
		"schwab.com",
		"fidelity.com",
		"vanguard.com",
		"paypal.com",
		"venmo.com",

		// Password Managers
		"1password.com",
		"lastpass.com",
		"bitwarden.com",
		"dashlane.com",

		// Authentication & Identity
		"accounts.google.com",
		"login.microsoftonline.com",
		"login.live.com",
		"auth0.com",
		"okta.com",

		// Healthcare & Government
		"mychart.com",
		"healthcare.gov",
		"irs.gov",
		"ssa.gov",
		"login.gov",
	}
}
