package injury

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/pitchcast/internal/domain/features"
)

const (
	highFatigue      = 70
	lowSleepHours    = 7
	poorConditioning = 50
	recentInjuryDays = 90
	partRiskAlert    = 50
	veteranAge       = 32
)

type ranked struct {
	priority int
	text     string
}

// recommendations builds the ranked, deduplicated and capped action list.
// Lower priority values come first.
func recommendations(w features.Workload, tier Tier, load Workload, parts []BodyPartRisk, reduction int) []string {
	var recs []ranked
	add := func(priority int, format string, args ...any) {
		recs = append(recs, ranked{priority: priority, text: fmt.Sprintf(format, args...)})
	}

	if tier == TierCritical {
		add(0, "Withdraw from full-contact training pending medical review")
	}
	if reduction > 0 {
		add(1, "Reduce training load by %d%% this week", reduction)
	}
	switch {
	case load.Zone == ZoneDanger:
		add(1, "Workload spike detected (ACWR %.2f); taper sessions over the next 7 days", load.Ratio)
	case load.Zone == ZoneCaution && load.Ratio > SafeHigh:
		add(2, "Monitor acute load closely (ACWR %.2f)", load.Ratio)
	case load.Zone == ZoneCaution && load.ChronicLoad > 0:
		add(3, "Build load gradually; player is underloaded (ACWR %.2f)", load.Ratio)
	}
	if w.Fatigue > highFatigue {
		add(2, "Prioritize recovery: fatigue at %.0f", w.Fatigue)
	}
	if w.SleepHours > 0 && w.SleepHours < lowSleepHours {
		add(3, "Increase sleep to at least 7-9 hours per night")
	}
	if 100-w.FitnessScore > poorConditioning {
		add(4, "Add a strength and conditioning block")
	}
	for _, in := range w.Injuries {
		if in.DaysAgo < recentInjuryDays {
			add(3, "Continue rehabilitation for the recent %s injury", strings.ToLower(string(in.BodyPart)))
		}
	}
	for _, p := range parts {
		if p.Risk >= partRiskAlert {
			add(4, "Targeted prehab for %s", strings.ToLower(string(p.Part)))
		}
	}
	if w.Age >= veteranAge {
		add(5, "Extend recovery windows between high-intensity sessions")
	}
	if w.IsYouth {
		add(5, "Monitor growth-related load with the academy medical team")
	}
	if len(recs) == 0 {
		add(9, "Maintain current load management and monitoring")
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].priority < recs[j].priority })
	seen := make(map[string]struct{}, len(recs))
	out := make([]string, 0, MaxRecommendations)
	for _, r := range recs {
		if _, dup := seen[r.text]; dup {
			continue
		}
		seen[r.text] = struct{}{}
		out = append(out, r.text)
		if len(out) == MaxRecommendations {
			break
		}
	}
	return out
}
