package storage

import "time"

// SchemaVersion is the current persisted schema version. There is no
// migration logic beyond presence-checking; Initialize writes this value
// once and never touches it again.
const SchemaVersion = 1

// Root keys of the persisted schema in the key-value backend.
const (
	keyDomains       = "domains"
	keyActiveSession = "activeSession"
	keySettings      = "settings"
	keyVersion       = "version"
	keyInstallDate   = "installDate"
)

// PillPosition anchors the floating timer pill to a page corner.
type PillPosition string

const (
	PillTopLeft     PillPosition = "top-left"
	PillTopRight    PillPosition = "top-right"
	PillBottomLeft  PillPosition = "bottom-left"
	PillBottomRight PillPosition = "bottom-right"
)

// ActiveSession is the single in-progress tracking record. At most one
// exists system-wide at any instant; it lives in the activeSession slot
// and is cleared when the session is stopped.
type ActiveSession struct {
	Domain    string    `json:"domain"`
	StartTime time.Time `json:"startTime"`
	TabID     int       `json:"tabId"`
	WindowID  int       `json:"windowId"`
	IsPaused  bool      `json:"isPaused"`
}

// Session is a completed tracking record. It is built once, at stop time,
// and never mutated afterward.
type Session struct {
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	TabID     int           `json:"tabId"`
	WindowID  int           `json:"windowId"`
}

// DomainData accumulates everything tracked for one domain. TotalTime is
// folded incrementally at each stop and equals the sum of all session
// durations; DailyStats buckets the same durations by completion date.
type DomainData struct {
	TotalTime    time.Duration            `json:"totalTime"`
	Sessions     []Session                `json:"sessions"`
	DailyStats   map[string]time.Duration `json:"dailyStats"`
	LastAccessed time.Time                `json:"lastAccessed"`
}

// Settings holds the user-tunable tracking options.
type Settings struct {
	PillPosition      PillPosition `json:"pillPosition"`
	PillVisibility    bool         `json:"pillVisibility"`
	DataRetentionDays int          `json:"dataRetentionDays"`
	ExcludedDomains   []string     `json:"excludedDomains"`
}

// IsExcluded reports whether a domain is on the exclusion list.
func (s Settings) IsExcluded(domain string) bool {
	for _, d := range s.ExcludedDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// SettingsPatch is a partial settings update. Nil fields leave the
// current value untouched; the merge is shallow.
type SettingsPatch struct {
	PillPosition      *PillPosition `json:"pillPosition,omitempty"`
	PillVisibility    *bool         `json:"pillVisibility,omitempty"`
	DataRetentionDays *int          `json:"dataRetentionDays,omitempty"`
	ExcludedDomains   *[]string     `json:"excludedDomains,omitempty"`
}

// Schema is the full persisted root object, as read back by GetAll.
type Schema struct {
	Domains       map[string]*DomainData `json:"domains"`
	ActiveSession *ActiveSession         `json:"activeSession"`
	Settings      Settings               `json:"settings"`
	Version       int                    `json:"version"`
	InstallDate   time.Time              `json:"installDate"`
}

// DomainTotal pairs a domain with its accumulated time.
type DomainTotal struct {
	Domain    string        `json:"domain"`
	TotalTime time.Duration `json:"totalTime"`
	Sessions  int           `json:"sessions"`
}

// Stats holds aggregate statistics across all tracked domains.
type Stats struct {
	TotalDomains  int           `json:"totalDomains"`
	TotalSessions int           `json:"totalSessions"`
	TotalTime     time.Duration `json:"totalTime"`
	TodayTime     time.Duration `json:"todayTime"`
	TopDomains    []DomainTotal `json:"topDomains"`
}
