package storage

import (
	"context"
	"sort"
	"time"

	"github.com/webtally/webtally/internal/timeutil"
)

// GetStats returns aggregate statistics across all tracked domains,
// including a ranked top-domains list.
func (s *Store) GetStats(ctx context.Context, topN int) (*Stats, error) {
	raw, err := s.kv.Get(ctx, keyDomains)
	if err != nil {
		return nil, opErr("get stats", err)
	}

	domains := map[string]*DomainData{}
	unmarshalKey(raw, keyDomains, &domains)

	today := timeutil.DayKey(s.now())
	stats := &Stats{TotalDomains: len(domains)}

	for name, d := range domains {
		if d == nil {
			continue
		}
		stats.TotalSessions += len(d.Sessions)
		stats.TotalTime += d.TotalTime
		stats.TodayTime += d.DailyStats[today]
		stats.TopDomains = append(stats.TopDomains, DomainTotal{
			Domain:    name,
			TotalTime: d.TotalTime,
			Sessions:  len(d.Sessions),
		})
	}

	sort.Slice(stats.TopDomains, func(i, j int) bool {
		if stats.TopDomains[i].TotalTime != stats.TopDomains[j].TotalTime {
			return stats.TopDomains[i].TotalTime > stats.TopDomains[j].TotalTime
		}
		return stats.TopDomains[i].Domain < stats.TopDomains[j].Domain
	})
	if topN > 0 && len(stats.TopDomains) > topN {
		stats.TopDomains = stats.TopDomains[:topN]
	}

	return stats, nil
}

// TotalsSince sums each domain's daily buckets from sinceDay (inclusive)
// onward. Bucket keys are ISO dates, so a plain string comparison orders
// them correctly.
func (s *Store) TotalsSince(ctx context.Context, sinceDay string) (map[string]time.Duration, error) {
	raw, err := s.kv.Get(ctx, keyDomains)
	if err != nil {
		return nil, opErr("totals since", err)
	}

	domains := map[string]*DomainData{}
	unmarshalKey(raw, keyDomains, &domains)

	totals := map[string]time.Duration{}
	for name, d := range domains {
		if d == nil {
			continue
		}
		var sum time.Duration
		for day, ms := range d.DailyStats {
			if day >= sinceDay {
				sum += ms
			}
		}
		if sum > 0 {
			totals[name] = sum
		}
	}

	return totals, nil
}

// PruneHistory drops completed sessions that ended before olderThan and
// daily buckets for days before it. Lifetime totalTime is preserved —
// retention trims history detail, not the cumulative counter. Returns
// the number of sessions removed.
func (s *Store) PruneHistory(ctx context.Context, olderThan time.Time) (int, error) {
	raw, err := s.kv.Get(ctx, keyDomains)
	if err != nil {
		return 0, opErr("prune history", err)
	}

	domains := map[string]*DomainData{}
	unmarshalKey(raw, keyDomains, &domains)

	horizon := timeutil.DayKey(olderThan)
	pruned := 0
	changed := false

	for _, d := range domains {
		if d == nil {
			continue
		}
		normalizeDomainData(d)

		kept := d.Sessions[:0]
		for _, sess := range d.Sessions {
			if sess.EndTime.Before(olderThan) {
				pruned++
				changed = true
				continue
			}
			kept = append(kept, sess)
		}
		d.Sessions = kept

		for day := range d.DailyStats {
			if day < horizon {
				delete(d.DailyStats, day)
				changed = true
			}
		}
	}

	if !changed {
		return 0, nil
	}
	if err := s.writeDomains(ctx, "prune history", domains); err != nil {
		return 0, err
	}
	return pruned, nil
}
