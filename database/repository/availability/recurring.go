package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservely/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrTemplateNotFound is returned when no recurring template matches.
var ErrTemplateNotFound = errors.New("recurring template not found")

func (r *mongoAvailabilityRepo) GetTemplate(ctx context.Context, templateID string) (*models.RecurringTemplate, error) {
	var tpl models.RecurringTemplate
	if err := r.templateColl.FindOne(ctx, bson.M{"id": templateID}).Decode(&tpl); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("error fetching template %s: %w", templateID, err)
	}
	return &tpl, nil
}

func (r *mongoAvailabilityRepo) ActiveTemplates(ctx context.Context) ([]models.RecurringTemplate, error) {
	cursor, err := r.templateColl.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("error listing active templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []models.RecurringTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("error decoding templates: %w", err)
	}
	return templates, nil
}

// MaterializeRecurringInstance upserts the concrete slot for the template
// occurrence on the given date. The unique (template, start_time) index
// makes repeated materialization of the same occurrence a no-op, so the
// weekly extension job can rerun or catch up without producing duplicates.
func (r *mongoAvailabilityRepo) MaterializeRecurringInstance(ctx context.Context, tpl *models.RecurringTemplate, date time.Time) (*models.Slot, error) {
	start, end := tpl.OccurrenceRange(date)

	filter := bson.M{
		"recurring_template_id": tpl.ID,
		"start_time":            start,
	}
	update := bson.M{
		"$setOnInsert": models.Slot{
			ID:                  uuid.New().String(),
			ProviderID:          tpl.ProviderID,
			StartTime:           start,
			EndTime:             end,
			IsBooked:            false,
			RecurringTemplateID: tpl.ID,
			CreatedAt:           time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var slot models.Slot
	if err := r.slotColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot); err != nil {
		return nil, fmt.Errorf("error materializing occurrence of template %s on %s: %w",
			tpl.ID, date.Format("2006-01-02"), err)
	}
	return &slot, nil
}

// LatestOccurrence returns the start time of the newest materialized slot
// for the template, or the zero time when none exist yet.
func (r *mongoAvailabilityRepo) LatestOccurrence(ctx context.Context, templateID string) (time.Time, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "start_time", Value: -1}})

	var slot models.Slot
	err := r.slotColl.FindOne(ctx, bson.M{"recurring_template_id": templateID}, opts).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("error finding latest occurrence for template %s: %w", templateID, err)
	}
	return slot.StartTime, nil
}
