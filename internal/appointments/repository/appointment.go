package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "fluxor/internal/appointments/errors"
	"fluxor/pkg/config"
	"fluxor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "appointments"
)

// Filter narrows appointment listings. Zero values mean "any".
type Filter struct {
	ClientID       string
	ProfessionalID string
	ServiceID      string
	Status         string
	Origin         string
	From           *time.Time
	To             *time.Time
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.Appointment, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Update(ctx context.Context, id string, appointment *model.Appointment) error
	Delete(ctx context.Context, id string) error
	FindActiveAt(ctx context.Context, professionalID string, dateTime time.Time) (*model.Appointment, error)
	FindActiveBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*model.Appointment, error)
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAppointmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, appointment)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appointment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	var appointment model.Appointment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appointment, nil
}

func (r *mongoAppointmentRepository) FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	return appointments, nil
}

func (r *mongoAppointmentRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *mongoAppointmentRepository) Update(ctx context.Context, id string, appointment *model.Appointment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"client_id":       appointment.ClientID,
			"professional_id": appointment.ProfessionalID,
			"service_id":      appointment.ServiceID,
			"date_time":       appointment.DateTime,
			"duration":        appointment.Duration,
			"price":           appointment.Price,
			"status":          appointment.Status,
			"notes":           appointment.Notes,
			"origin":          appointment.Origin,
			"updated_at":      appointment.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if result.MatchedCount == 0 {
		return appointmentserrors.ErrNotFound
	}

	return nil
}

func (r *mongoAppointmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if result.DeletedCount == 0 {
		return appointmentserrors.ErrNotFound
	}

	return nil
}

// FindActiveAt looks up an active appointment at exactly the given
// wall-clock timestamp for the professional. This is the conflict probe:
// two bookings collide only when their timestamps are identical.
func (r *mongoAppointmentRepository) FindActiveAt(ctx context.Context, professionalID string, dateTime time.Time) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"professional_id": professionalID,
		"date_time":       dateTime,
		"status":          bson.M{"$in": model.ActiveStatuses},
	}

	var appointment model.Appointment
	err := r.collection.FindOne(ctx, filter).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to probe appointment slot: %w", err)
	}

	return &appointment, nil
}

func (r *mongoAppointmentRepository) FindActiveBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"professional_id": professionalID,
		"date_time":       bson.M{"$gte": from, "$lt": to},
		"status":          bson.M{"$in": model.ActiveStatuses},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments in range: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	return appointments, nil
}

func buildFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.ProfessionalID != "" {
		filter["professional_id"] = f.ProfessionalID
	}
	if f.ServiceID != "" {
		filter["service_id"] = f.ServiceID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Origin != "" {
		filter["origin"] = f.Origin
	}
	if f.From != nil || f.To != nil {
		rangeFilter := bson.M{}
		if f.From != nil {
			rangeFilter["$gte"] = *f.From
		}
		if f.To != nil {
			rangeFilter["$lt"] = *f.To
		}
		filter["date_time"] = rangeFilter
	}
	return filter
}
