package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	professionalserrors "fluxor/internal/professionals/errors"
	"fluxor/pkg/config"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "professionals"
)

type ProfessionalRepository interface {
	Create(ctx context.Context, professional *model.Professional) error
	FindByID(ctx context.Context, id string) (*model.Professional, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Professional, error)
	FindAll(ctx context.Context, onlyActive bool, limit int, offset int64) ([]*model.Professional, error)
	Count(ctx context.Context, onlyActive bool) (int64, error)
	Update(ctx context.Context, id string, professional *model.Professional) error
	Delete(ctx context.Context, id string) error
}

type mongoProfessionalRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProfessionalRepository(cfg *config.Config) ProfessionalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfessionalRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProfessionalRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoProfessionalRepository) Create(ctx context.Context, professional *model.Professional) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := timezone.NowStrippedIn(r.cfg.Location())
	professional.CreatedAt = now
	professional.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, professional)
	if err != nil {
		return fmt.Errorf("failed to create professional: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		professional.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProfessionalRepository) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	var professional model.Professional
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&professional)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, professionalserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find professional: %w", err)
	}

	return &professional, nil
}

func (r *mongoProfessionalRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}
	if len(objectIDs) == 0 {
		return map[string]*model.Professional{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find professionals by ids: %w", err)
	}
	defer cursor.Close(ctx)

	var professionals []*model.Professional
	if err = cursor.All(ctx, &professionals); err != nil {
		return nil, fmt.Errorf("failed to decode professionals: %w", err)
	}

	out := make(map[string]*model.Professional, len(professionals))
	for _, p := range professionals {
		out[p.ID] = p
	}
	return out, nil
}

func (r *mongoProfessionalRepository) FindAll(ctx context.Context, onlyActive bool, limit int, offset int64) ([]*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, activeFilter(onlyActive), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find professionals: %w", err)
	}
	defer cursor.Close(ctx)

	var professionals []*model.Professional
	if err = cursor.All(ctx, &professionals); err != nil {
		return nil, fmt.Errorf("failed to decode professionals: %w", err)
	}

	return professionals, nil
}

func (r *mongoProfessionalRepository) Count(ctx context.Context, onlyActive bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, activeFilter(onlyActive))
	if err != nil {
		return 0, fmt.Errorf("failed to count professionals: %w", err)
	}
	return count, nil
}

func (r *mongoProfessionalRepository) Update(ctx context.Context, id string, professional *model.Professional) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":         professional.Name,
			"specialty":    professional.Specialty,
			"registration": professional.Registration,
			"phone":        professional.Phone,
			"email":        professional.Email,
			"active":       professional.Active,
			"updated_at":   timezone.NowStrippedIn(r.cfg.Location()),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update professional: %w", err)
	}

	if result.MatchedCount == 0 {
		return professionalserrors.ErrNotFound
	}

	return nil
}

func (r *mongoProfessionalRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete professional: %w", err)
	}

	if result.DeletedCount == 0 {
		return professionalserrors.ErrNotFound
	}

	return nil
}

func activeFilter(onlyActive bool) bson.M {
	if onlyActive {
		return bson.M{"active": true}
	}
	return bson.M{}
}
