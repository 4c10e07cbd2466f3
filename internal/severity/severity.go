// internal/severity/severity.go
package severity

import (
	"strings"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
)

// rule maps trigger keywords to an alert level. Rules are checked in order
// and the first match wins, so the critical keywords must stay ahead of the
// warning ones.
type rule struct {
	keywords []string
	level    int
}

var rules = []rule{
	{keywords: []string{"break", "force", "critical"}, level: data.LevelCritical},
	{keywords: []string{"tamper", "warn"}, level: data.LevelWarning},
}

// Classify derives an alert level from free-text trigger input.
// Matching is case-insensitive substring search; text without any known
// keyword classifies as Standard.
func Classify(eventText string) int {
	txt := strings.ToLower(eventText)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(txt, kw) {
				return r.level
			}
		}
	}
	return data.LevelStandard
}

// EventLevel maps an alert level to the severity string recorded on events.
func EventLevel(level int) string {
	switch level {
	case data.LevelCritical:
		return data.SeverityCritical
	case data.LevelWarning:
		return data.SeverityWarn
	default:
		return data.SeverityInfo
	}
}
