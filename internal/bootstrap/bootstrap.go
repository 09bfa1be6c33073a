package bootstrap

import (
	"context"
	"fmt"

	"github.com/vecemhq/dataset-ingest/internal/config"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
	"github.com/vecemhq/dataset-ingest/internal/core/usecase"
	"github.com/vecemhq/dataset-ingest/internal/infrastructure/archive"
	"github.com/vecemhq/dataset-ingest/internal/infrastructure/extensions"
	"github.com/vecemhq/dataset-ingest/internal/infrastructure/queue/nats"
	"github.com/vecemhq/dataset-ingest/internal/infrastructure/repository/postgres"
	"github.com/vecemhq/dataset-ingest/internal/infrastructure/resilience"
	"github.com/vecemhq/dataset-ingest/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue  *nats.Queue
	Repo   ports.DatasetRepository
	Policy ports.ExtensionPolicy

	RegisterUC     ports.DatasetRegistrar
	AvailabilityUC ports.NameAvailabilityService
	Reader         ports.DatasetReader
	RemoveUC       ports.DatasetRemover
	ArchiveUC      ports.DatasetArchiver

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDatasetRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	packager := archive.NewZipPackager(storage)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,
		Policy: extensions.NewStaticPolicy(),

		RegisterUC:     usecase.NewRegisterDatasetUseCase(repo, storage, queue),
		AvailabilityUC: usecase.NewNameAvailabilityUseCase(repo),
		Reader:         repo,
		RemoveUC:       usecase.NewRemoveDatasetUseCase(repo, storage),
		ArchiveUC:      usecase.NewArchiveDatasetUseCase(repo, storage, packager),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
