package database

import (
	"context"
	"log"
	"time"

	"reservely/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// DatabaseName is the logical database used by all repositories.
const DatabaseName = "reservely"

// transactionsSupported records the result of the startup capability probe.
var transactionsSupported bool

// InitDB initializes the MongoDB connection and probes transaction support.
func InitDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping MongoDB: %v", err)
	}
	MongoClient = client
	log.Println("Connected to MongoDB successfully!")

	transactionsSupported = probeTransactions(client)
	if transactionsSupported {
		log.Println("MongoDB transactions available; bookings will run transactionally")
	} else {
		log.Println("MongoDB transactions unavailable; bookings will run best-effort with compensation")
	}
}

// probeTransactions attempts a no-op transaction. Standalone deployments
// reject multi-document transactions; replica sets and sharded clusters
// accept them.
func probeTransactions(client *mongo.Client) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, err := client.StartSession()
	if err != nil {
		return false
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		return sc.AbortTransaction(sc)
	})
	return err == nil
}

// SupportsTransactions reports the capability detected at startup.
func SupportsTransactions() bool {
	return transactionsSupported
}

// GetDB returns the service database handle.
func GetDB() *mongo.Database {
	return MongoClient.Database(DatabaseName)
}
