package session

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store backed by a MongoDB collection. Appends use
// $push so they are atomic document updates on the server; concurrent
// appenders never overwrite each other's entries.
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures indexes on the session id
// and owner fields.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	sessions := client.Database(database).Collection("sessions")
	_, err = sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create session indexes: %w", err)
	}

	return &MongoStore{client: client, sessions: sessions}, nil
}

func (s *MongoStore) Create(ctx context.Context, owner, initialQuery string) (*Session, error) {
	sess := &Session{
		ID:           NewID(),
		Owner:        owner,
		Interactions: []Interaction{{Query: initialQuery, Response: ""}},
		LastUpdated:  time.Now().UTC(),
	}

	if _, err := s.sessions.InsertOne(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	var sess Session
	err := s.sessions.FindOne(ctx, bson.M{"session_id": id}).Decode(&sess)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	return &sess, true, nil
}

func (s *MongoStore) AppendInteraction(ctx context.Context, id, query, response string) error {
	result, err := s.sessions.UpdateOne(ctx,
		bson.M{"session_id": id},
		bson.M{
			"$push": bson.M{"interactions": Interaction{Query: query, Response: response}},
			"$set":  bson.M{"timestamp": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetInitialResponse(ctx context.Context, id, response string) error {
	result, err := s.sessions.UpdateOne(ctx,
		bson.M{"session_id": id},
		bson.M{"$set": bson.M{
			"interactions.0.response": response,
			"timestamp":               time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("set initial response: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, owner string) ([]*Session, error) {
	cursor, err := s.sessions.Find(ctx, bson.M{"username": owner})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *MongoStore) MarkLocationExecuted(ctx context.Context, id string) error {
	result, err := s.sessions.UpdateOne(ctx,
		bson.M{"session_id": id},
		bson.M{"$set": bson.M{"location_query_executed": true}},
	)
	if err != nil {
		return fmt.Errorf("mark location executed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SaveSummary(ctx context.Context, id string, summary Summary) error {
	result, err := s.sessions.UpdateOne(ctx,
		bson.M{"session_id": id},
		bson.M{"$set": bson.M{"summary": summary}},
	)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) GetSummary(ctx context.Context, id string) (*Summary, error) {
	var doc struct {
		Summary *Summary `bson:"summary"`
	}
	err := s.sessions.FindOne(ctx, bson.M{"session_id": id},
		options.FindOne().SetProjection(bson.M{"summary": 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return doc.Summary, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
