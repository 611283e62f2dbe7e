package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Retry controls ConnectMongoWithRetry. Backoff doubles after every failed attempt.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

var DefaultRetry = Retry{Attempts: 5, Backoff: time.Second}

type connectFunc func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error)

// ConnectMongoWithRetry tolerates startup races with the database container.
func ConnectMongoWithRetry(ctx context.Context, log *zap.Logger, uri string, timeout time.Duration, r Retry) (*mongo.Client, error) {
	return connectWithRetry(ctx, log, ConnectMongo, uri, timeout, r)
}

func connectWithRetry(ctx context.Context, log *zap.Logger, connect connectFunc, uri string, timeout time.Duration, r Retry) (*mongo.Client, error) {
	if r.Attempts < 1 {
		r.Attempts = 1
	}
	backoff := r.Backoff
	var lastErr error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		client, err := connect(ctx, uri, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		log.Warn("mongo connect failed", zap.Int("attempt", attempt), zap.Int("max_attempts", r.Attempts), zap.Error(err))
		if attempt == r.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", r.Attempts, lastErr)
}
