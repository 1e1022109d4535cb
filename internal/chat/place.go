package chat

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/wildquest-ai/wildquest/internal/session"
)

// matchThreshold is the minimum similarity for a place-name match,
// aligned with difflib-style close matching.
const matchThreshold = 0.6

// MatchActivity fuzzy-matches a free-text place name against the cached
// activity names, case-insensitively and typo-tolerantly. It returns the
// best match when its similarity reaches the threshold; a miss is a
// normal negative result, not an error.
func MatchActivity(placeName string, activities []session.Activity) (session.Activity, bool) {
	target := strings.ToLower(placeName)

	bestIdx := -1
	bestScore := 0.0
	for i, activity := range activities {
		score := levenshtein.Similarity(target, strings.ToLower(activity.Name), nil)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < matchThreshold {
		return session.Activity{}, false
	}
	return activities[bestIdx], true
}
