package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aniverse/walletbridge/adapters/events"
	"github.com/aniverse/walletbridge/adapters/store"
	"github.com/aniverse/walletbridge/adapters/tokenizer"
	"github.com/aniverse/walletbridge/ports"
	"github.com/aniverse/walletbridge/service"
	transport "github.com/aniverse/walletbridge/transport/http"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := loadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("database unreachable")
	}

	principalStore := store.NewPostgresStore(db)
	if err := principalStore.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure schema")
	}

	publisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to set up event publisher")
	}

	signKey, err := loadSigningKey(cfg.SigningKeyFile, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load signing key")
	}

	authService := service.NewAuthService(
		principalStore,
		tokenizer.NewJWTTokenizer(signKey),
		publisher,
		log,
	)

	router := transport.SetupRouter(authService, log)

	log.WithField("addr", cfg.ListenAddr).Info("wallet bridge listening")
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// buildPublisher wires the Watermill Redis Streams publisher for session
// lifecycle events. Without a Redis URL the events are discarded.
func buildPublisher(ctx context.Context, cfg config, log *logrus.Logger) (ports.EventPublisher, error) {
	if cfg.RedisURL == "" {
		log.Warn("no redis configured; session events will not be broadcast")
		return events.NopPublisher{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	return events.NewWatermillPublisher(publisher), nil
}

// loadSigningKey reads an ECDSA private key in PEM form, or generates an
// ephemeral one when no file is configured. Ephemeral keys invalidate all
// outstanding sessions on restart.
func loadSigningKey(path string, log *logrus.Logger) (*ecdsa.PrivateKey, error) {
	if path == "" {
		log.Warn("no signing key configured; generating an ephemeral key")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("signing key file is not PEM encoded")
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	return key, nil
}
