package chat

import (
	"strings"

	"github.com/wildquest-ai/wildquest/internal/session"
)

// systemPrompt is the fixed instruction sent with every completion.
const systemPrompt = "You are a knowledgeable assistant about fauna, flora, and tourism activities. Always consider the full context of the conversation"

// buildTranscript reconstructs the linear conversation from the stored
// interaction log in stored order, appends the new query as a trailing
// user line, then appends one line per non-empty cached fact category.
// The rendering is what gets truncated; the stored log never is.
func buildTranscript(sess *session.Session, query string) string {
	blocks := make([]string, 0, len(sess.Interactions))
	for _, interaction := range sess.Interactions {
		blocks = append(blocks, "\nUser: "+interaction.Query+"\nAI: "+interaction.Response)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(blocks, "\n"))
	sb.WriteString("\nUser: " + query)

	if sess.Summary != nil {
		if names := speciesNames(sess.Summary.Fauna); names != "" {
			sb.WriteString("\nFauna: " + names)
		}
		if names := speciesNames(sess.Summary.Flora); names != "" {
			sb.WriteString("\nFlora: " + names)
		}
	}
	return sb.String()
}

// speciesNames comma-joins the species display names of a fact list.
func speciesNames(facts []session.SpeciesFact) string {
	if len(facts) == 0 {
		return ""
	}
	names := make([]string, len(facts))
	for i, fact := range facts {
		names[i] = fact.Species
	}
	return strings.Join(names, ", ")
}

// activityNames comma-joins the names of a tourism-activity list.
func activityNames(activities []session.Activity) string {
	if len(activities) == 0 {
		return ""
	}
	names := make([]string, len(activities))
	for i, activity := range activities {
		names[i] = activity.Name
	}
	return strings.Join(names, ", ")
}
