package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	publiclinkerrors "fluxor/internal/publiclink/errors"
	"fluxor/pkg/config"
	"fluxor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "booking_links"
)

type BookingLinkRepository interface {
	Create(ctx context.Context, link *model.BookingLink) error
	FindByClient(ctx context.Context, clientID string) (*model.BookingLink, error)
	// ConsumeByToken returns the active link for token and increments its
	// access counter in the same operation.
	ConsumeByToken(ctx context.Context, token string) (*model.BookingLink, error)
	Deactivate(ctx context.Context, clientID string) error
	Delete(ctx context.Context, clientID string) error
}

type mongoBookingLinkRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLinkRepository(cfg *config.Config) BookingLinkRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLinkRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingLinkRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBookingLinkRepository) Create(ctx context.Context, link *model.BookingLink) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return publiclinkerrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create booking link: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		link.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingLinkRepository) FindByClient(ctx context.Context, clientID string) (*model.BookingLink, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var link model.BookingLink
	err := r.collection.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, publiclinkerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking link: %w", err)
	}

	return &link, nil
}

func (r *mongoBookingLinkRepository) ConsumeByToken(ctx context.Context, token string) (*model.BookingLink, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"token": token, "active": true}
	update := bson.M{"$inc": bson.M{"access_count": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var link model.BookingLink
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, publiclinkerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to consume booking link: %w", err)
	}

	return &link, nil
}

func (r *mongoBookingLinkRepository) Deactivate(ctx context.Context, clientID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"client_id": clientID, "active": true},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate booking link: %w", err)
	}

	if result.MatchedCount == 0 {
		return publiclinkerrors.ErrNotFound
	}

	return nil
}

// Delete removes the link document entirely; reissuing afterwards starts
// with a fresh access counter.
func (r *mongoBookingLinkRepository) Delete(ctx context.Context, clientID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return fmt.Errorf("failed to delete booking link: %w", err)
	}

	if result.DeletedCount == 0 {
		return publiclinkerrors.ErrNotFound
	}

	return nil
}
