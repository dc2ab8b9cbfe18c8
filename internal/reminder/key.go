package reminder

import (
	"fmt"
	"strings"
)

// Period selects how often one milestone may be reminded.
type Period string

const (
	// PeriodMilestone reminds once per milestone date.
	PeriodMilestone Period = "milestone"
	// PeriodDaily reminds once per milestone per local day.
	PeriodDaily Period = "daily"
)

// ParsePeriod validates a configured period. Empty means PeriodMilestone.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodMilestone:
		return PeriodMilestone, nil
	case PeriodDaily:
		return PeriodDaily, nil
	}
	return "", fmt.Errorf("reminder: unknown period %q", s)
}

// IdempotencyKey identifies one reminder for the persisted "last notified"
// marker: record type, record id and milestone date, plus the local day
// under PeriodDaily. day is YYYY-MM-DD in the reference zone.
func IdempotencyKey(c Candidate, p Period, day string) string {
	key := fmt.Sprintf("%s:%s:%s", c.RecordType, c.RecordID, c.Date())
	if p == PeriodDaily {
		key += ":" + day
	}
	return key
}
