package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gogotex/gogotex/backend/go-users/internal/config"
	"github.com/gogotex/gogotex/backend/go-users/internal/database"
	"github.com/gogotex/gogotex/backend/go-users/internal/users"
	"github.com/gogotex/gogotex/backend/go-users/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "users.json", "JSON array of user objects to import")
	dryRun := flag.Bool("dry-run", false, "validate against an in-memory store instead of MongoDB")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, flush := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	defer flush()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("open seed file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	ctx := context.Background()
	var repo users.UserRepository
	if *dryRun || cfg.MongoDB.URI == "" {
		log.Warn("seeding the in-memory store; nothing will be persisted")
		repo = users.NewMemoryRepository()
	} else {
		client, err := database.ConnectMongoWithRetry(ctx, log, cfg.MongoDB.URI, cfg.MongoDB.Timeout, database.DefaultRetry)
		if err != nil {
			log.Fatal("mongo unavailable", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		repo, err = users.NewMongoUserRepository(ctx, client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection))
		if err != nil {
			log.Fatal("mongo user repository", zap.Error(err))
		}
	}

	res, err := seed(ctx, users.NewService(repo), f, log)
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("seed finished", zap.Int("created", res.created), zap.Int("rejected", res.rejected))
}

type result struct {
	created  int
	rejected int
}

// seed saves every object in r. Validation failures are logged and skipped;
// a store failure stops the import.
func seed(ctx context.Context, m users.Model, r io.Reader, log *zap.Logger) (result, error) {
	var res result
	var records []users.Attributes
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return res, fmt.Errorf("decode seed file: %w", err)
	}
	for i, attrs := range records {
		u, err := m.Save(ctx, attrs)
		if err != nil {
			if users.IsValidation(err) {
				log.Warn("skipping record", zap.Int("index", i), zap.Error(err))
				res.rejected++
				continue
			}
			return res, err
		}
		log.Debug("user created", zap.String("id", u.ID.Hex()), zap.String("email", u.Email))
		res.created++
	}
	return res, nil
}
