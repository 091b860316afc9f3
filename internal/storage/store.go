package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the schema-typed aggregation layer over the raw key-value
// backend. It owns the persisted shape — domains map, active-session
// slot, settings, version and install metadata — and the default-value
// policy for every key.
//
// Error semantics are deliberately asymmetric: writes and direct
// accessors surface a wrapped *OpError, while the best-effort read
// accessors (GetAll backfill, GetDomainData, GetActiveSession,
// GetSettings) absorb backend failures and return defaults, so a caller
// that only wants current state never crashes on a flaky read.
type Store struct {
	kv  KV
	now func() time.Time
}

// NewStore creates a Store over the given backend. Construct one per
// process and pass it to every consumer; tests get isolation by
// constructing a fresh Store over a fresh backend.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// SetClock overrides the store's clock. Tests use this to pin
// lastAccessed and installDate stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Get is a typed passthrough to the raw backend.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	raw, err := s.kv.Get(ctx, keys...)
	return raw, opErr("get", err)
}

// Set is a typed passthrough to the raw backend.
func (s *Store) Set(ctx context.Context, values map[string]json.RawMessage) error {
	return opErr("set", s.kv.Set(ctx, values))
}

// Remove is a typed passthrough to the raw backend.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	return opErr("remove", s.kv.Remove(ctx, keys...))
}

// Clear wipes the entire backend.
func (s *Store) Clear(ctx context.Context) error {
	return opErr("clear", s.kv.Clear(ctx))
}

// GetAll reads the full schema, backfilling every missing key with its
// default: empty domains map, no active session, default settings,
// version 1, install date of now. Only the backend read itself can fail;
// default construction always succeeds.
func (s *Store) GetAll(ctx context.Context) (*Schema, error) {
	raw, err := s.kv.Get(ctx, keyDomains, keyActiveSession, keySettings, keyVersion, keyInstallDate)
	if err != nil {
		return nil, opErr("get all", err)
	}

	schema := &Schema{
		Domains:     map[string]*DomainData{},
		Settings:    DefaultSettings(),
		Version:     SchemaVersion,
		InstallDate: s.now(),
	}

	unmarshalKey(raw, keyDomains, &schema.Domains)
	unmarshalKey(raw, keyActiveSession, &schema.ActiveSession)
	unmarshalKey(raw, keySettings, &schema.Settings)
	unmarshalKey(raw, keyVersion, &schema.Version)
	unmarshalKey(raw, keyInstallDate, &schema.InstallDate)

	return schema, nil
}

// Initialize bootstraps the schema metadata. It writes only the subset
// of version/installDate/settings that is currently absent, so it is
// idempotent and never clobbers state left by a previous run — even a
// partially-populated one.
func (s *Store) Initialize(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, keyVersion, keyInstallDate, keySettings)
	if err != nil {
		return opErr("initialize", err)
	}

	missing := map[string]json.RawMessage{}
	if !keyPresent(raw, keyVersion) {
		missing[keyVersion] = mustMarshal(SchemaVersion)
	}
	if !keyPresent(raw, keyInstallDate) {
		missing[keyInstallDate] = mustMarshal(s.now())
	}
	if !keyPresent(raw, keySettings) {
		missing[keySettings] = mustMarshal(DefaultSettings())
	}

	if len(missing) == 0 {
		return nil
	}
	return opErr("initialize", s.kv.Set(ctx, missing))
}

// GetDomainData returns the stored record for a domain, or a fresh empty
// one. Best-effort: a backend failure yields the empty record, not an
// error.
func (s *Store) GetDomainData(ctx context.Context, domain string) *DomainData {
	domains := s.readDomains(ctx)
	if d, ok := domains[domain]; ok && d != nil {
		normalizeDomainData(d)
		return d
	}
	return NewDomainData()
}

// UpdateDomainData applies a mutation to one domain's record using
// read-merge-write: fetch the current domains map, mutate the domain's
// record (or a fresh one), stamp lastAccessed, and write the whole map
// back.
//
// This is NOT atomic against concurrent writers — there is no
// compare-and-swap at the backend, so two interleaved updates resolve as
// last-writer-wins. The single-active-session invariant serializes the
// only writer that matters in practice; callers needing strict
// serialization must sequence updates themselves.
func (s *Store) UpdateDomainData(ctx context.Context, domain string, apply func(*DomainData)) (*DomainData, error) {
	raw, err := s.kv.Get(ctx, keyDomains)
	if err != nil {
		return nil, opErr("update domain data", err)
	}

	domains := map[string]*DomainData{}
	unmarshalKey(raw, keyDomains, &domains)

	d, ok := domains[domain]
	if !ok || d == nil {
		d = NewDomainData()
	}
	normalizeDomainData(d)

	apply(d)
	d.LastAccessed = s.now()
	domains[domain] = d

	values := map[string]json.RawMessage{keyDomains: mustMarshal(domains)}
	if err := s.kv.Set(ctx, values); err != nil {
		return nil, opErr("update domain data", err)
	}
	return d, nil
}

// GetActiveSession returns the current active session, or nil when the
// slot is empty. Best-effort: nil on any backend failure.
func (s *Store) GetActiveSession(ctx context.Context) *ActiveSession {
	raw, err := s.kv.Get(ctx, keyActiveSession)
	if err != nil {
		return nil
	}

	var session *ActiveSession
	unmarshalKey(raw, keyActiveSession, &session)
	return session
}

// SetActiveSession writes the active-session slot. Passing nil clears it.
func (s *Store) SetActiveSession(ctx context.Context, session *ActiveSession) error {
	values := map[string]json.RawMessage{keyActiveSession: mustMarshal(session)}
	return opErr("set active session", s.kv.Set(ctx, values))
}

// GetSettings returns the stored settings, falling back to defaults when
// absent or unreadable.
func (s *Store) GetSettings(ctx context.Context) Settings {
	settings := DefaultSettings()

	raw, err := s.kv.Get(ctx, keySettings)
	if err != nil {
		return settings
	}
	unmarshalKey(raw, keySettings, &settings)
	return settings
}

// UpdateSettings shallow-merges a partial update over the current
// settings and persists the result.
func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	settings := s.GetSettings(ctx)

	if patch.PillPosition != nil {
		settings.PillPosition = *patch.PillPosition
	}
	if patch.PillVisibility != nil {
		settings.PillVisibility = *patch.PillVisibility
	}
	if patch.DataRetentionDays != nil {
		settings.DataRetentionDays = *patch.DataRetentionDays
	}
	if patch.ExcludedDomains != nil {
		settings.ExcludedDomains = *patch.ExcludedDomains
	}

	values := map[string]json.RawMessage{keySettings: mustMarshal(settings)}
	if err := s.kv.Set(ctx, values); err != nil {
		return Settings{}, opErr("update settings", err)
	}
	return settings, nil
}

// readDomains fetches the domains map best-effort: empty on any failure.
func (s *Store) readDomains(ctx context.Context) map[string]*DomainData {
	domains := map[string]*DomainData{}

	raw, err := s.kv.Get(ctx, keyDomains)
	if err != nil {
		return domains
	}
	unmarshalKey(raw, keyDomains, &domains)
	return domains
}

// writeDomains persists the whole domains map under the given operation
// name for error wrapping.
func (s *Store) writeDomains(ctx context.Context, op string, domains map[string]*DomainData) error {
	values := map[string]json.RawMessage{keyDomains: mustMarshal(domains)}
	return opErr(op, s.kv.Set(ctx, values))
}

// normalizeDomainData repairs nil collections on records decoded from
// storage so callers can mutate them without nil checks.
func normalizeDomainData(d *DomainData) {
	if d.Sessions == nil {
		d.Sessions = []Session{}
	}
	if d.DailyStats == nil {
		d.DailyStats = map[string]time.Duration{}
	}
}

// unmarshalKey decodes raw[key] into v. Absent keys, JSON null, and
// corrupt values all leave v untouched and report false.
func unmarshalKey(raw map[string]json.RawMessage, key string, v interface{}) bool {
	b, ok := raw[key]
	if !ok || len(b) == 0 || string(b) == "null" {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// keyPresent reports whether a key holds a non-null value.
func keyPresent(raw map[string]json.RawMessage, key string) bool {
	b, ok := raw[key]
	return ok && len(b) > 0 && string(b) != "null"
}

// mustMarshal encodes v to JSON. The schema types marshal without error
// by construction.
func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Unreachable for schema types; keep the value out of storage
		// rather than panic the event loop.
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}
