// FILE: database/repository/availability/indexes.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the slots and
// recurring_templates collections.
func (r *mongoAvailabilityRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetName("provider_start_idx"),
		},
		// One concrete slot per template occurrence; makes the weekly
		// extension job idempotent.
		{
			Keys: bson.D{{Key: "recurring_template_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_template_occurrence").
				SetPartialFilterExpression(bson.M{"recurring_template_id": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "end_time", Value: 1}, {Key: "is_booked", Value: 1}},
			Options: options.Index().SetName("end_booked_idx"),
		},
	}
	if _, err := r.slotColl.Indexes().CreateMany(ctx, slotIndexes); err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}

	templateIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "active", Value: 1}},
			Options: options.Index().SetName("active_idx"),
		},
	}
	if _, err := r.templateColl.Indexes().CreateMany(ctx, templateIndexes); err != nil {
		return fmt.Errorf("failed to create template indexes: %w", err)
	}
	return nil
}
