package app

import (
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"resource-gateway/internal/access"
	"resource-gateway/internal/backend"
	"resource-gateway/internal/config"
	"resource-gateway/internal/download"
	"resource-gateway/internal/gateway"
	"resource-gateway/internal/infra/dynamo"
	infras3 "resource-gateway/internal/infra/s3"
	"resource-gateway/internal/store"
	"resource-gateway/internal/transport/echo"
	"resource-gateway/internal/tree"
	"resource-gateway/internal/worker"
)

// InitializeService wires up all dependencies and returns a configured
// Service.
func InitializeService(logger *slog.Logger) (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	objects, blobs, err := buildStores(cfg)
	if err != nil {
		return nil, err
	}

	cleanup := worker.NewPool(cfg.Workers.CleanupWorkers, cfg.Workers.CleanupQueueSize, logger)
	walker := tree.NewWalker(objects, blobs, cfg.Workers.ArchiveWorkers, logger)

	registry := backend.NewRegistry()
	backend.RegisterAll(registry, objects, blobs, walker, cleanup, logger)

	evaluator := access.NewEvaluator(cfg.Auth.AdminRoles...)
	downloads := download.NewManager(cfg.Download.SyncTimeout, cfg.Download.JobTTL, logger)

	gw := gateway.New(registry, evaluator, walker, downloads, blobs, cleanup, logger)
	server := echo.NewServer(cfg, gw)

	return &Service{
		config:  cfg,
		server:  server,
		cleanup: cleanup,
		logger:  logger.With(slog.String("component", "app")),
	}, nil
}

func buildStores(cfg *config.Config) (store.ObjectStore, store.BlobStore, error) {
	if cfg.Store.Driver == config.DriverMemory {
		return store.NewMemoryObjectStore(), store.NewMemoryBlobStore(), nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Store.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.Store.AccessKeyID,
			cfg.Store.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating aws session: %w", err)
	}

	objects := dynamo.NewObjectStore(dynamodb.New(sess), cfg.Store.ObjectTable)

	blobs, err := infras3.NewBlobStore(infras3.Config{
		Region:          cfg.Store.Region,
		AccessKeyID:     cfg.Store.AccessKeyID,
		SecretAccessKey: cfg.Store.SecretAccessKey,
		Bucket:          cfg.Store.Bucket,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating s3 client: %w", err)
	}

	return objects, blobs, nil
}
