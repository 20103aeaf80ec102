package model

import (
	"fmt"
	"time"
)

// Period is a look-back window selectable by the UI.
type Period string

const (
	PeriodDay   Period = "24h"
	PeriodWeek  Period = "7d"
	PeriodMonth Period = "30d"
)

// Duration returns the length of the period.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// ParsePeriod validates a period string. Empty input means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// SessionActivityLog summarizes one reconstructed usage session.
type SessionActivityLog struct {
	OwnerID         string                `json:"ownerId"`
	SessionStart    time.Time             `json:"sessionStart"`
	SessionEnd      time.Time             `json:"sessionEnd"`
	DurationMinutes int64                 `json:"durationMinutes"`
	LoginType       string                `json:"loginType"`
	TotalActions    int                   `json:"totalActions"`
	ActionBreakdown map[OperationType]int `json:"actionBreakdown"`
	TotalSearches   int                   `json:"totalSearches"`
	SearchQueries   []string              `json:"searchQueries"`
	ProcessedAt     time.Time             `json:"processedAt"`
	CacheExpiresAt  time.Time             `json:"cacheExpiresAt"`
}

// ActivitySummary aggregates sessions for one owner and period.
type ActivitySummary struct {
	OwnerID          string               `json:"ownerId"`
	Period           Period               `json:"period"`
	PeriodStart      time.Time            `json:"periodStart"`
	SessionsCount    int                  `json:"sessionsCount"`
	TotalTimeMinutes int64                `json:"totalTimeMinutes"`
	MostCommonAction string               `json:"mostCommonAction"`
	TotalActions     int                  `json:"totalActions"`
	TotalSearches    int                  `json:"totalSearches"`
	Sessions         []SessionActivityLog `json:"sessions"`
	FromCache        bool                 `json:"fromCache"`
}
