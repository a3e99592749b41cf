package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	waitlisterrors "fluxor/internal/waitlist/errors"
	"fluxor/pkg/config"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "waitlist"
)

type WaitlistRepository interface {
	Create(ctx context.Context, entry *model.WaitlistEntry) error
	FindByID(ctx context.Context, id string) (*model.WaitlistEntry, error)
	FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.WaitlistEntry, error)
	Count(ctx context.Context, status string) (int64, error)
	Update(ctx context.Context, id string, entry *model.WaitlistEntry) error
	Delete(ctx context.Context, id string) error
}

type mongoWaitlistRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoWaitlistRepository(cfg *config.Config) WaitlistRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWaitlistRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoWaitlistRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoWaitlistRepository) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := timezone.NowStrippedIn(r.cfg.Location())
	entry.CreatedAt = now
	entry.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoWaitlistRepository) FindByID(ctx context.Context, id string) (*model.WaitlistEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", waitlisterrors.ErrInvalidID, id)
	}

	var entry model.WaitlistEntry
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, waitlisterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find waitlist entry: %w", err)
	}

	return &entry, nil
}

// FindAll orders the queue by priority (highest first) and then arrival.
func (r *mongoWaitlistRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.WaitlistEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, statusFilter(status), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find waitlist entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.WaitlistEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode waitlist entries: %w", err)
	}

	return entries, nil
}

func (r *mongoWaitlistRepository) Count(ctx context.Context, status string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, statusFilter(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	return count, nil
}

func (r *mongoWaitlistRepository) Update(ctx context.Context, id string, entry *model.WaitlistEntry) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", waitlisterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"client_id":  entry.ClientID,
			"service_id": entry.ServiceID,
			"priority":   entry.Priority,
			"notes":      entry.Notes,
			"status":     entry.Status,
			"updated_at": timezone.NowStrippedIn(r.cfg.Location()),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update waitlist entry: %w", err)
	}

	if result.MatchedCount == 0 {
		return waitlisterrors.ErrNotFound
	}

	return nil
}

func (r *mongoWaitlistRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", waitlisterrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", err)
	}

	if result.DeletedCount == 0 {
		return waitlisterrors.ErrNotFound
	}

	return nil
}

func statusFilter(status string) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}
