// Package chat implements the conversational core: it reconstructs
// per-session context, bounds it to a token budget, invokes the language
// model, and persists each exchange. Location and place queries feed the
// same assembly path with templated prompts.
package chat

import (
	"context"
	"log/slog"

	"github.com/wildquest-ai/wildquest/internal/gbif"
	"github.com/wildquest-ai/wildquest/internal/provider"
	"github.com/wildquest-ai/wildquest/internal/session"
)

// SpeciesSearcher is the species-occurrence provider contract.
type SpeciesSearcher interface {
	Search(ctx context.Context, lat, lon, radiusKm float64) ([]gbif.Occurrence, error)
}

// ActivitySearcher is the tourism-activity provider contract.
type ActivitySearcher interface {
	Search(ctx context.Context, lat, lon float64) ([]session.Activity, error)
}

// Config holds the service's tunable limits.
type Config struct {
	// ConversationBudget caps the assembled multi-turn context in tokens.
	ConversationBudget int

	// PromptBudget caps one-shot location/place prompts in tokens.
	PromptBudget int

	// RadiusKm is the species search radius around a queried coordinate.
	RadiusKm float64
}

// Service orchestrates conversations. All collaborators are injected so
// the core runs against in-memory fakes in tests; it keeps no state of
// its own beyond the injected handles.
type Service struct {
	store      session.Store
	llm        provider.Provider
	species    SpeciesSearcher
	activities ActivitySearcher
	log        *slog.Logger

	conversationBudget int
	promptBudget       int
	radiusKm           float64
}

func NewService(store session.Store, llm provider.Provider, species SpeciesSearcher, activities ActivitySearcher, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConversationBudget <= 0 {
		cfg.ConversationBudget = 700
	}
	if cfg.PromptBudget <= 0 {
		cfg.PromptBudget = 500
	}
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = 1
	}
	return &Service{
		store:              store,
		llm:                llm,
		species:            species,
		activities:         activities,
		log:                logger,
		conversationBudget: cfg.ConversationBudget,
		promptBudget:       cfg.PromptBudget,
		radiusKm:           cfg.RadiusKm,
	}
}

// Ask starts or continues a conversation. If sessionID is empty or
// unknown, a new session seeded with this query is created. The response
// and the (possibly new) session id are returned. Only the raw query and
// the model's response are persisted; the assembled context never is, and
// nothing is recorded when the model call fails.
func (s *Service) Ask(ctx context.Context, owner, sessionID, query string) (string, string, error) {
	sess, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", "", err
	}

	var transcript string
	created := false
	if !ok {
		sess, err = s.store.Create(ctx, owner, query)
		if err != nil {
			return "", "", err
		}
		created = true
		transcript = "User: " + query
	} else {
		transcript = buildTranscript(sess, query)
	}

	transcript = Truncate(transcript, s.conversationBudget)
	s.log.Debug("assembled context",
		"session_id", sess.ID, "tokens", CountTokens(transcript), "created", created)

	response, err := s.llm.Complete(ctx, &provider.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserContent:  transcript,
	})
	if err != nil {
		return "", "", upstream("language model", err)
	}

	if created {
		err = s.store.SetInitialResponse(ctx, sess.ID, response)
	} else {
		err = s.store.AppendInteraction(ctx, sess.ID, query, response)
	}
	if err != nil {
		return "", "", err
	}
	return response, sess.ID, nil
}

// Conversation is one session's transcript as exposed to callers.
type Conversation struct {
	SessionID    string                `json:"session_id"`
	Conversation []session.Interaction `json:"conversation"`
}

// History returns all of the owner's conversations. Order is unspecified.
func (s *Service) History(ctx context.Context, owner string) ([]Conversation, error) {
	sessions, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	conversations := make([]Conversation, 0, len(sessions))
	for _, sess := range sessions {
		conversations = append(conversations, Conversation{
			SessionID:    sess.ID,
			Conversation: sess.Interactions,
		})
	}
	return conversations, nil
}

// SessionHistory returns one session's transcript, enforcing ownership.
func (s *Service) SessionHistory(ctx context.Context, owner, sessionID string) (Conversation, error) {
	sess, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Conversation{}, err
	}
	if !ok {
		return Conversation{}, session.ErrNotFound
	}
	if sess.Owner != owner {
		return Conversation{}, ErrForbidden
	}
	return Conversation{SessionID: sess.ID, Conversation: sess.Interactions}, nil
}

// Place is a cached tourism activity as exposed to callers.
type Place struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Pictures  []string `json:"pictures"`
}

// Places lists the tourism activities cached by a session's location
// query, enforcing ownership.
func (s *Service) Places(ctx context.Context, owner, sessionID string) ([]Place, error) {
	sess, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, session.ErrNotFound
	}
	if sess.Owner != owner {
		return nil, ErrForbidden
	}

	summary, err := s.store.GetSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, ErrSummaryNotFound
	}

	places := make([]Place, 0, len(summary.TourismActivities))
	for _, activity := range summary.TourismActivities {
		places = append(places, Place{
			Name:      activity.Name,
			Latitude:  activity.GeoCode.Latitude,
			Longitude: activity.GeoCode.Longitude,
			Pictures:  activity.Pictures,
		})
	}
	return places, nil
}
