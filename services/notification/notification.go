package notification

import (
	"context"
	"fmt"
	"time"

	"reservely/database"
	"reservely/models"
	"reservely/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultNotificationService records each notification in a mongo outbox
// collection and hands it to the delivery channel. The push/email
// transport lives outside this service; here the send is a structured log
// line the transport tails.
type DefaultNotificationService struct {
	outbox *mongo.Collection
}

// NewDefaultNotificationService constructs the outbox-backed dispatcher.
func NewDefaultNotificationService() *DefaultNotificationService {
	db := database.GetDB()
	return &DefaultNotificationService{
		outbox: db.Collection("notifications"),
	}
}

func (s *DefaultNotificationService) Notify(ctx context.Context, kind, recipient, title, message string, data map[string]any) error {
	n := models.Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Recipient: recipient,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.outbox.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	utils.GetLogger().Info("notification dispatched",
		zap.String("kind", kind),
		zap.String("recipient", recipient),
		zap.String("title", title),
	)
	return nil
}
