package chat

import (
	"context"
	"fmt"

	"github.com/wildquest-ai/wildquest/internal/gbif"
	"github.com/wildquest-ai/wildquest/internal/session"
)

const (
	defaultLocationQuestion = "Can you provide more details about this location?"

	noFaunaSentinel    = "No fauna information available"
	noFloraSentinel    = "No flora information available"
	noActivitySentinel = "No tourism activities available"
)

// LocationQuery runs the one-shot location lookup for a session: it
// fetches species occurrences and tourism activities, classifies and
// summarizes them, renders a templated prompt and feeds it through the
// normal context-assembly path, then caches the summary and sets the
// one-shot flag.
//
// The flag check happens before any provider call; a repeat lookup fails
// with ErrLocationAlreadyQueried without touching the network. Provider
// and classification work happen before the flag is set, so a failure
// mid-pipeline leaves the session clean and safe to retry.
func (s *Service) LocationQuery(ctx context.Context, owner, sessionID string, lat, lon float64, question string) (string, string, error) {
	sess, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	if ok && sess.LocationQueryExecuted {
		return "", "", ErrLocationAlreadyQueried
	}
	if !ok {
		sessionID = ""
	}

	records, err := s.species.Search(ctx, lat, lon, s.radiusKm)
	if err != nil {
		return "", "", upstream("species occurrence search", err)
	}
	fauna, flora := gbif.Classify(records)

	activities, err := s.activities.Search(ctx, lat, lon)
	if err != nil {
		return "", "", upstream("tourism activity search", err)
	}

	summary := session.BuildSummary(fauna, flora, activities)

	if question == "" {
		question = defaultLocationQuestion
	}
	prompt := Truncate(renderLocationPrompt(lat, lon, summary, question), s.promptBudget)

	response, resolvedID, err := s.Ask(ctx, owner, sessionID, prompt)
	if err != nil {
		return "", "", err
	}

	if err := s.store.SaveSummary(ctx, resolvedID, summary); err != nil {
		return "", "", err
	}
	if err := s.store.MarkLocationExecuted(ctx, resolvedID); err != nil {
		return "", "", err
	}

	s.log.Info("location query executed",
		"session_id", resolvedID,
		"fauna", len(summary.Fauna),
		"flora", len(summary.Flora),
		"activities", len(summary.TourismActivities))
	return response, resolvedID, nil
}

// renderLocationPrompt embeds coordinates, species lists and activity
// names in the fixed location template, with explicit sentinels for
// empty categories.
func renderLocationPrompt(lat, lon float64, summary session.Summary, question string) string {
	faunaLine := speciesNames(summary.Fauna)
	if faunaLine == "" {
		faunaLine = noFaunaSentinel
	}
	floraLine := speciesNames(summary.Flora)
	if floraLine == "" {
		floraLine = noFloraSentinel
	}
	activityLine := activityNames(summary.TourismActivities)
	if activityLine == "" {
		activityLine = noActivitySentinel
	}

	return fmt.Sprintf(`Here's the information about the location:
- Latitude: %v
- Longitude: %v
- Fauna: %s
- Flora: %s
- Tourism Activities: %s

Question: %s`, lat, lon, faunaLine, floraLine, activityLine, question)
}

// PlaceQuery fuzzy-matches a place name against the session's cached
// activities and, on a hit, discusses the matched record through the
// context-assembly path. A below-threshold match returns found=false
// with no error: a normal negative result.
func (s *Service) PlaceQuery(ctx context.Context, owner, sessionID, placeName, question string) (string, bool, error) {
	_, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, session.ErrNotFound
	}

	summary, err := s.store.GetSummary(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	if summary == nil {
		return "", false, ErrSummaryNotFound
	}

	place, found := MatchActivity(placeName, summary.TourismActivities)
	if !found {
		return "", false, nil
	}

	if question == "" {
		question = fmt.Sprintf("Can you provide more details about %s? I would like to know more about this location.", place.Name)
	}
	prompt := fmt.Sprintf("Discuss about %s. %s", describeActivity(place), question)
	prompt = Truncate(prompt, s.promptBudget)

	response, _, err := s.Ask(ctx, owner, sessionID, prompt)
	if err != nil {
		return "", false, err
	}
	return response, true, nil
}

// describeActivity renders one activity record for prompting.
func describeActivity(activity session.Activity) string {
	desc := fmt.Sprintf("%s (latitude %v, longitude %v)",
		activity.Name, activity.GeoCode.Latitude, activity.GeoCode.Longitude)
	if activity.ShortDescription != "" {
		desc += ": " + activity.ShortDescription
	}
	return desc
}
