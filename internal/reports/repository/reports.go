package repository

import (
	"context"
	"fmt"
	"time"

	"fluxor/pkg/config"
	"fluxor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportsRepository reads across collections; it owns no documents of its
// own. Revenue and duration join the service catalog at read time, so the
// dashboard reflects current catalog values rather than booking snapshots.
type ReportsRepository interface {
	CountActiveClients(ctx context.Context) (int64, error)
	CountActiveProfessionals(ctx context.Context) (int64, error)
	CountActiveServices(ctx context.Context) (int64, error)
	CountWaitingEntries(ctx context.Context) (int64, error)
	CountAppointmentsByStatus(ctx context.Context) (map[string]int64, error)
	AppointmentsByStatusBetween(ctx context.Context, from, to time.Time) (map[string]int64, error)
	CountAppointmentsBetween(ctx context.Context, from, to time.Time, statuses []string) (int64, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (float64, error)
	AvgDurationBetween(ctx context.Context, from, to time.Time) (float64, error)
	RecentClients(ctx context.Context, limit int64) ([]*model.Client, error)
	RecentAppointments(ctx context.Context, status string, limit int64) ([]*model.Appointment, error)
	UpcomingAppointments(ctx context.Context, professionalID string, after time.Time, limit int64) ([]*model.Appointment, error)
	ClientNames(ctx context.Context, ids []string) (map[string]string, error)
	ProfessionalNames(ctx context.Context, ids []string) (map[string]string, error)
	ServiceNames(ctx context.Context, ids []string) (map[string]string, error)
	DailyActivity(ctx context.Context, from, to time.Time, professionalID string) ([]DailyBucket, error)
}

// DailyBucket is one day of the revenue-versus-appointments chart. Day is
// the stored date rendered as YYYY-MM-DD; revenue counts completed
// appointments only, at current catalog prices.
type DailyBucket struct {
	Day          string  `bson:"_id"`
	Appointments int64   `bson:"appointments"`
	Revenue      float64 `bson:"revenue"`
}

type mongoReportsRepository struct {
	cfg *config.Config
	db  *mongo.Database
}

func NewMongoReportsRepository(cfg *config.Config) ReportsRepository {
	return &mongoReportsRepository{
		cfg: cfg,
		db:  cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
	}
}

func (r *mongoReportsRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoReportsRepository) CountActiveClients(ctx context.Context) (int64, error) {
	return r.count(ctx, "clients", bson.M{"active": true})
}

func (r *mongoReportsRepository) CountActiveProfessionals(ctx context.Context) (int64, error) {
	return r.count(ctx, "professionals", bson.M{"active": true})
}

func (r *mongoReportsRepository) CountActiveServices(ctx context.Context) (int64, error) {
	return r.count(ctx, "services", bson.M{"active": true})
}

func (r *mongoReportsRepository) CountWaitingEntries(ctx context.Context) (int64, error) {
	return r.count(ctx, "waitlist", bson.M{"status": model.WaitlistWaiting})
}

func (r *mongoReportsRepository) count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

func (r *mongoReportsRepository) CountAppointmentsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.statusCounts(ctx, nil)
}

func (r *mongoReportsRepository) AppointmentsByStatusBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	return r.statusCounts(ctx, bson.M{"date_time": bson.M{"$gte": from, "$lt": to}})
}

func (r *mongoReportsRepository) statusCounts(ctx context.Context, match bson.M) (map[string]int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var pipeline mongo.Pipeline
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}})

	cursor, err := r.db.Collection("appointments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to group appointments by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *mongoReportsRepository) CountAppointmentsBetween(ctx context.Context, from, to time.Time, statuses []string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"date_time": bson.M{"$gte": from, "$lt": to}}
	switch len(statuses) {
	case 0:
	case 1:
		filter["status"] = statuses[0]
	default:
		filter["status"] = bson.M{"$in": statuses}
	}

	n, err := r.db.Collection("appointments").CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return n, nil
}

// RevenueBetween sums the catalog price of every completed appointment in
// range. Appointments whose service was deleted contribute zero.
func (r *mongoReportsRepository) RevenueBetween(ctx context.Context, from, to time.Time) (float64, error) {
	return r.aggregateServiceField(ctx, from, to, "$sum", "$service_info.price")
}

// AvgDurationBetween averages the catalog duration of completed
// appointments in range; 0 when no rows match.
func (r *mongoReportsRepository) AvgDurationBetween(ctx context.Context, from, to time.Time) (float64, error) {
	return r.aggregateServiceField(ctx, from, to, "$avg", "$service_info.duration")
}

func (r *mongoReportsRepository) aggregateServiceField(ctx context.Context, from, to time.Time, op, field string) (float64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":    model.StatusCompleted,
			"date_time": bson.M{"$gte": from, "$lt": to},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"service_object_id": bson.M{"$toObjectId": "$service_id"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "services",
			"localField":   "service_object_id",
			"foreignField": "_id",
			"as":           "service_info",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$service_info",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"value": bson.M{op: bson.M{"$ifNull": bson.A{field, 0}}},
		}}},
	}

	cursor, err := r.db.Collection("appointments").Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Value float64 `bson:"value"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode aggregation result: %w", err)
	}

	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Value, nil
}

func (r *mongoReportsRepository) RecentClients(ctx context.Context, limit int64) ([]*model.Client, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.db.Collection("clients").Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent clients: %w", err)
	}
	defer cursor.Close(ctx)

	var clients []*model.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("failed to decode recent clients: %w", err)
	}
	return clients, nil
}

// RecentAppointments lists the latest appointments in the given status,
// most recently touched first.
func (r *mongoReportsRepository) RecentAppointments(ctx context.Context, status string, limit int64) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.db.Collection("appointments").Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode recent appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoReportsRepository) UpcomingAppointments(ctx context.Context, professionalID string, after time.Time, limit int64) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"date_time": bson.M{"$gte": after},
		"status":    bson.M{"$in": bson.A{model.StatusScheduled, model.StatusConfirmed}},
	}
	if professionalID != "" {
		filter["professional_id"] = professionalID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date_time", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.db.Collection("appointments").Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode upcoming appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoReportsRepository) ClientNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.namesIn(ctx, "clients", ids)
}

func (r *mongoReportsRepository) ProfessionalNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.namesIn(ctx, "professionals", ids)
}

func (r *mongoReportsRepository) ServiceNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.namesIn(ctx, "services", ids)
}

// namesIn resolves display names in one batched query. Unparsable and
// missing ids are simply absent from the result.
func (r *mongoReportsRepository) namesIn(ctx context.Context, collection string, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := r.db.Collection(collection).Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s names: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID   primitive.ObjectID `bson:"_id"`
		Name string             `bson:"name"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s names: %w", collection, err)
	}

	for _, row := range rows {
		out[row.ID.Hex()] = row.Name
	}
	return out, nil
}

func (r *mongoReportsRepository) DailyActivity(ctx context.Context, from, to time.Time, professionalID string) ([]DailyBucket, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	match := bson.M{"date_time": bson.M{"$gte": from, "$lt": to}}
	if professionalID != "" {
		match["professional_id"] = professionalID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			"service_object_id": bson.M{"$toObjectId": "$service_id"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "services",
			"localField":   "service_object_id",
			"foreignField": "_id",
			"as":           "service_info",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$service_info",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":          bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date_time"}},
			"appointments": bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", model.StatusCompleted}},
				bson.M{"$ifNull": bson.A{"$service_info.price", 0}},
				0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.db.Collection("appointments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily activity: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []DailyBucket
	if err = cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode daily activity: %w", err)
	}
	return buckets, nil
}
