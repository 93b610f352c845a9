package booking

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// UnitOfWork runs a multi-step booking mutation as one logical unit.
// The transactional implementation gives real atomicity; the best-effort
// one runs the same steps sequentially and relies on the orchestrator's
// compensation when a later step fails.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionalUnitOfWork wraps the callback in a MongoDB multi-document
// transaction. The callback receives a session context, so repository
// calls made with it participate in the transaction.
type TransactionalUnitOfWork struct {
	Client *mongo.Client
}

func (u *TransactionalUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := u.Client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// BestEffortUnitOfWork executes the callback directly. Each step must be
// individually safe to partially fail.
type BestEffortUnitOfWork struct{}

func (BestEffortUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewUnitOfWork selects the implementation based on the capability flag
// detected at startup.
func NewUnitOfWork(client *mongo.Client, transactional bool) UnitOfWork {
	if transactional {
		return &TransactionalUnitOfWork{Client: client}
	}
	return BestEffortUnitOfWork{}
}
