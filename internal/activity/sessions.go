// Package activity reconstructs usage sessions from the raw login, operation
// and search streams. Everything here works from local data only.
package activity

import (
	"sort"
	"time"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

const (
	DefaultInactivityWindow  = 30 * time.Minute
	DefaultRecentSearchLimit = 10

	LoginTypeLogin    = "login"
	LoginTypeImplicit = "implicit"

	// ActionSearch is the histogram bucket for search events.
	ActionSearch = "search"

	minutesPerSession = 5
	minutesPerAction  = 2
	minMinutes        = 5
)

// actionPriority breaks ties in MostCommonAction; unlisted actions follow in lexical order.
var actionPriority = []string{
	ActionSearch,
	string(model.OpLikeTrack),
	string(model.OpUpdateMood),
	string(model.OpUpsertInterests),
	string(model.OpUnlockAchievement),
	string(model.OpLogActivity),
}

// Session is a login-derived span. Events in [Start, Boundary) belong to it.
type Session struct {
	Start    time.Time
	Boundary time.Time
	Logins   int
	Implicit bool
}

// GroupLoginSessions groups successful logins. The rolling boundary is the
// last login of the session plus window; a login at or after the boundary
// opens a new session.
func GroupLoginSessions(logins []model.LoginEvent, window time.Duration) []Session {
	ts := make([]time.Time, 0, len(logins))
	for _, l := range logins {
		if l.Success {
			ts = append(ts, l.Timestamp)
		}
	}
	if len(ts) == 0 {
		return nil
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

	var out []Session
	cur := Session{Start: ts[0], Boundary: ts[0].Add(window), Logins: 1}
	for _, t := range ts[1:] {
		if !t.Before(cur.Boundary) {
			out = append(out, cur)
			cur = Session{Start: t, Boundary: t.Add(window), Logins: 1}
			continue
		}
		cur.Boundary = t.Add(window)
		cur.Logins++
	}
	return append(out, cur)
}

// ImplicitSession covers all activity when no login was seen in the period.
// ok is false when there is no activity at all.
func ImplicitSession(ops []model.OperationEvent, searches []model.SearchEvent, window time.Duration) (Session, bool) {
	var first, last time.Time
	seen := false
	track := func(t time.Time) {
		if !seen || t.Before(first) {
			first = t
		}
		if !seen || t.After(last) {
			last = t
		}
		seen = true
	}
	for _, o := range ops {
		track(o.Timestamp)
	}
	for _, s := range searches {
		track(s.Timestamp)
	}
	if !seen {
		return Session{}, false
	}
	return Session{Start: first, Boundary: last.Add(window), Implicit: true}, true
}

// BuildOptions parameterize BuildSessionLogs.
type BuildOptions struct {
	Window        time.Duration
	RecentLimit   int
	ProcessedAt   time.Time
	CacheLifetime time.Duration
}

// BuildSessionLogs attributes operations and searches to sessions and derives
// one log per session. A session's end is stretched to cover trailing
// activity: max(last op, last search, start) + window.
func BuildSessionLogs(ownerID string, sessions []Session, ops []model.OperationEvent, searches []model.SearchEvent, opt BuildOptions) []model.SessionActivityLog {
	if opt.RecentLimit <= 0 {
		opt.RecentLimit = DefaultRecentSearchLimit
	}
	out := make([]model.SessionActivityLog, 0, len(sessions))
	for _, s := range sessions {
		log := model.SessionActivityLog{
			OwnerID:         ownerID,
			SessionStart:    s.Start,
			LoginType:       LoginTypeLogin,
			ActionBreakdown: map[model.OperationType]int{},
			SearchQueries:   []string{},
			ProcessedAt:     opt.ProcessedAt,
			CacheExpiresAt:  opt.ProcessedAt.Add(opt.CacheLifetime),
		}
		if s.Implicit {
			log.LoginType = LoginTypeImplicit
		}

		lastActivity := s.Start
		for _, o := range ops {
			if !within(o.Timestamp, s) {
				continue
			}
			log.TotalActions++
			log.ActionBreakdown[o.Operation]++
			if o.Timestamp.After(lastActivity) {
				lastActivity = o.Timestamp
			}
		}

		var inSession []model.SearchEvent
		for _, q := range searches {
			if !within(q.Timestamp, s) {
				continue
			}
			inSession = append(inSession, q)
			if q.Timestamp.After(lastActivity) {
				lastActivity = q.Timestamp
			}
		}
		log.TotalSearches = len(inSession)
		sort.SliceStable(inSession, func(i, j int) bool { return inSession[i].Timestamp.After(inSession[j].Timestamp) })
		for i := 0; i < len(inSession) && i < opt.RecentLimit; i++ {
			log.SearchQueries = append(log.SearchQueries, inSession[i].Query)
		}

		log.SessionEnd = lastActivity.Add(opt.Window)
		log.DurationMinutes = int64(log.SessionEnd.Sub(log.SessionStart) / time.Minute)
		out = append(out, log)
	}
	return out
}

func within(t time.Time, s Session) bool {
	return !t.Before(s.Start) && t.Before(s.Boundary)
}

// ActiveMinutes merges all three streams, regroups them with the inactivity
// rule and sums each group's span. Any detected activity is floored at
// max(raw, sessions*5, (ops+searches)*2, 5) minutes.
func ActiveMinutes(logins []model.LoginEvent, ops []model.OperationEvent, searches []model.SearchEvent, sessions int, window time.Duration) int64 {
	ts := make([]time.Time, 0, len(logins)+len(ops)+len(searches))
	for _, l := range logins {
		if l.Success {
			ts = append(ts, l.Timestamp)
		}
	}
	for _, o := range ops {
		ts = append(ts, o.Timestamp)
	}
	for _, s := range searches {
		ts = append(ts, s.Timestamp)
	}
	actions := len(ops) + len(searches)
	if sessions == 0 && actions == 0 {
		return 0
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

	var total time.Duration
	if len(ts) > 0 {
		first, last := ts[0], ts[0]
		for _, t := range ts[1:] {
			if !t.Before(last.Add(window)) {
				total += last.Sub(first)
				first = t
			}
			last = t
		}
		total += last.Sub(first)
	}

	raw := int64(total / time.Minute)
	return max(raw, int64(sessions*minutesPerSession), int64(actions*minutesPerAction), minMinutes)
}

// MostCommonAction returns the most frequent action across operations and
// searches, or "" when there are none.
func MostCommonAction(ops []model.OperationEvent, searches []model.SearchEvent) string {
	counts := map[string]int{}
	for _, o := range ops {
		counts[string(o.Operation)]++
	}
	if len(searches) > 0 {
		counts[ActionSearch] += len(searches)
	}
	best, bestN := "", 0
	for action, n := range counts {
		if n > bestN || (n == bestN && ranksBefore(action, best)) {
			best, bestN = action, n
		}
	}
	return best
}

func ranksBefore(a, b string) bool {
	pa, pb := priorityOf(a), priorityOf(b)
	if pa != pb {
		return pa < pb
	}
	return a < b
}

func priorityOf(action string) int {
	for i, p := range actionPriority {
		if p == action {
			return i
		}
	}
	return len(actionPriority)
}
