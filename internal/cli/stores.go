package cli

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/credentials"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/panel"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/panel/httpclient"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue/gsheets"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue/remote"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue/workbook"
	"github.com/eshaffer321/deposit-autoapprove/internal/application/reconcile"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/breaker"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/config"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// NewPanelStore creates the panel client
func NewPanelStore(cfg *config.Config, logger *slog.Logger) panel.Store {
	return httpclient.NewClient(cfg.Panel.BaseURL, cfg.Panel.Token, cfg.Panel.Timeout,
		httpclient.WithLogger(logger),
		httpclient.WithBreaker(breaker.New("panel", breaker.DefaultConfig(), logger)),
	)
}

// NewQueueStore creates the configured queue backend and the registry it
// resolves documents with
func NewQueueStore(cfg *config.Config, logger *slog.Logger) (queue.Store, queue.Registry, error) {
	if err := cfg.ValidateQueue(); err != nil {
		return nil, nil, err
	}

	layout := queue.DefaultLayout()
	layout.HeaderRow = cfg.Queue.HeaderRow
	if cfg.Queue.DataOffset != nil {
		layout.DataOffset = *cfg.Queue.DataOffset
	}

	switch cfg.Queue.Backend {
	case config.BackendSheets:
		creds := credentials.NewFileResolver(cfg.Queue.CredentialsDir)
		registry := queue.NewCachedRegistry(
			gsheets.NewRegistry(cfg.RegistryDocuments(), creds, nil),
			cfg.Queue.RegistryTTL,
		)
		return gsheets.NewStore(registry, creds, layout, nil, logger), registry, nil

	case config.BackendWorkbook:
		locations := make(map[bank.Bank]queue.Location, len(cfg.Queue.Workbook.Files))
		for name, path := range cfg.Queue.Workbook.Files {
			b, err := bank.Parse(name)
			if err != nil {
				return nil, nil, fmt.Errorf("queue.workbook.files: %w", err)
			}
			locations[b] = queue.Location{DocumentID: path, SheetIndex: cfg.Queue.Workbook.SheetIndex}
		}
		registry := queue.StaticRegistry{cfg.Tenant: locations}
		return workbook.NewStore(registry, layout, logger), registry, nil

	case config.BackendRemote:
		client := remote.NewClient(cfg.Queue.Remote.BaseURL, cfg.Queue.Remote.Timeout, logger)
		return client, client, nil
	}

	return nil, nil, fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
}

// OpenStorage opens the audit trail. It returns nil when no database path
// is configured.
func OpenStorage(cfg *config.Config) (storage.Repository, error) {
	if cfg.Storage.DatabasePath == "" {
		return nil, nil
	}
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}
	return store, nil
}

// ReconcileOptions converts configuration into reconcile options
func ReconcileOptions(cfg *config.Config, dryRun bool) (reconcile.Options, error) {
	opts := reconcile.DefaultOptions()
	opts.Tenant = cfg.Tenant
	opts.MinCoin = cfg.Reconcile.MinCoin
	opts.ApprovedStatus = panel.Status(cfg.Reconcile.ApprovedStatus)
	opts.CallTimeout = cfg.Reconcile.CallTimeout
	opts.FailureBackoff = cfg.Reconcile.FailureBackoff
	opts.MaxBackoff = cfg.Reconcile.MaxBackoff
	opts.IdleDelay = cfg.Reconcile.IdleDelay
	opts.DryRun = dryRun

	if len(cfg.Banks) > 0 {
		banks, err := bank.ParseList(cfg.Banks)
		if err != nil {
			return opts, fmt.Errorf("banks: %w", err)
		}
		opts.Banks = banks
	}
	return opts, nil
}

// closeStorage closes repo if it is set
func closeStorage(repo storage.Repository) {
	if repo != nil {
		_ = repo.Close()
	}
}
