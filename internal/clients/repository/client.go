package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	clientserrors "fluxor/internal/clients/errors"
	"fluxor/pkg/config"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "clients"
)

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	FindByID(ctx context.Context, id string) (*model.Client, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Client, error)
	FindByDocument(ctx context.Context, document string) (*model.Client, error)
	FindAll(ctx context.Context, search string, limit int, offset int64) ([]*model.Client, error)
	Count(ctx context.Context, search string) (int64, error)
	Update(ctx context.Context, id string, client *model.Client) error
	Delete(ctx context.Context, id string) error
}

type mongoClientRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoClientRepository(cfg *config.Config) ClientRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClientRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoClientRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoClientRepository) Create(ctx context.Context, client *model.Client) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := timezone.NowStrippedIn(r.cfg.Location())
	client.CreatedAt = now
	client.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		client.ID = oid.Hex()
	}
	return nil
}

func (r *mongoClientRepository) FindByID(ctx context.Context, id string) (*model.Client, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", clientserrors.ErrInvalidID, id)
	}

	var client model.Client
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, clientserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	return &client, nil
}

// FindByIDs fetches the given clients in one query, keyed by hex id.
// Unknown ids are simply absent from the result.
func (r *mongoClientRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Client, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}
	if len(objectIDs) == 0 {
		return map[string]*model.Client{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find clients by ids: %w", err)
	}
	defer cursor.Close(ctx)

	var clients []*model.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("failed to decode clients: %w", err)
	}

	out := make(map[string]*model.Client, len(clients))
	for _, c := range clients {
		out[c.ID] = c
	}
	return out, nil
}

func (r *mongoClientRepository) FindByDocument(ctx context.Context, document string) (*model.Client, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var client model.Client
	err := r.collection.FindOne(ctx, bson.M{"document": document}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, clientserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find client by document: %w", err)
	}

	return &client, nil
}

func (r *mongoClientRepository) FindAll(ctx context.Context, search string, limit int, offset int64) ([]*model.Client, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildSearchFilter(search), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find clients: %w", err)
	}
	defer cursor.Close(ctx)

	var clients []*model.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("failed to decode clients: %w", err)
	}

	return clients, nil
}

func (r *mongoClientRepository) Count(ctx context.Context, search string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(search))
	if err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return count, nil
}

func (r *mongoClientRepository) Update(ctx context.Context, id string, client *model.Client) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", clientserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":       client.Name,
			"email":      client.Email,
			"phone":      client.Phone,
			"document":   client.Document,
			"birth_date": client.BirthDate,
			"address":    client.Address,
			"notes":      client.Notes,
			"active":     client.Active,
			"updated_at": timezone.NowStrippedIn(r.cfg.Location()),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	if result.MatchedCount == 0 {
		return clientserrors.ErrNotFound
	}

	return nil
}

func (r *mongoClientRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", clientserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	if result.DeletedCount == 0 {
		return clientserrors.ErrNotFound
	}

	return nil
}

// buildSearchFilter matches name, phone or document against a free-text
// term. The term is regex-escaped so user input cannot inject patterns.
func buildSearchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{
		"$or": []bson.M{
			{"name": pattern},
			{"phone": pattern},
			{"document": pattern},
		},
	}
}
