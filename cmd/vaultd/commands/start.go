package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaultd/vaultd/internal/logger"
	"github.com/vaultd/vaultd/pkg/config"
	"github.com/vaultd/vaultd/pkg/identity"
	identitybadger "github.com/vaultd/vaultd/pkg/identity/badgerstore"
	"github.com/vaultd/vaultd/pkg/metrics"
	dispatchmetrics "github.com/vaultd/vaultd/pkg/metrics/prometheus"
	"github.com/vaultd/vaultd/pkg/server"
	"github.com/vaultd/vaultd/pkg/storage"
	storagebadger "github.com/vaultd/vaultd/pkg/storage/badgerstore"
	"github.com/vaultd/vaultd/pkg/storage/fsstore"
	"github.com/vaultd/vaultd/pkg/storage/memstore"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the vaultd server",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := InitLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("vaultd: starting", logger.KeyConfigSource, getConfigSource(GetConfigFile()))

	store, err := buildStore(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("build storage backend: %w", err)
	}

	creds, err := buildCreds(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("build identity backend: %w", err)
	}
	if err := bootstrapAdmin(creds); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	var dm *dispatchmetrics.DispatchMetrics
	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		dm = dispatchmetrics.NewDispatchMetrics()
		metricsSrv = metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			if err := metricsSrv.Serve(); err != nil {
				logger.Warn("metrics: server exited", logger.KeyError, err)
			}
		}()
	}

	srvCfg := server.Config{
		Addr:                cfg.Server.Addr,
		HandlerPoolSize:     cfg.Server.HandlerPoolSize,
		WorkerPoolSize:      cfg.Server.WorkerPoolSize,
		SocketQueueCapacity: cfg.Server.SocketQueueCapacity,
		TaskQueueCapacity:   cfg.Server.TaskQueueCapacity,
		LockTableCapacity:   cfg.Server.LockTableCapacity,
		MaxBody:             cfg.Server.MaxBody.Int64(),
		MaxClients:          cfg.Server.MaxClients,
		ShutdownTimeout:     cfg.Server.ShutdownTimeout,
	}
	srv := server.New(srvCfg, store, creds).WithMetrics(dm)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("vaultd: received signal, shutting down", logger.KeySignal, sig.String())
		if err := srv.Stop(); err != nil {
			logger.Warn("vaultd: shutdown did not complete cleanly", logger.KeyError, err)
		}
		<-serverDone
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
	}

	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(cmd.Context())
	}

	return nil
}

func buildStore(cfg *config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "mem":
		return memstore.New(), nil
	case "badger":
		inner, err := fsstore.New(fsstore.DefaultConfig(cfg.Path))
		if err != nil {
			return nil, err
		}
		return storagebadger.Open(cfg.Path+"/.badger", inner)
	default:
		return fsstore.New(fsstore.DefaultConfig(cfg.Path))
	}
}

// buildCreds wires a persistent identity.badgerstore alongside a badger
// file store so registered users survive a restart; the fs and mem storage
// backends get the in-memory credential store, matching their own
// non-durable semantics.
func buildCreds(cfg *config.StorageConfig) (identity.CredentialStore, error) {
	if cfg.Backend == "badger" {
		return identitybadger.Open(cfg.Path + "/.identity")
	}
	return identity.NewMemStore(), nil
}

func bootstrapAdmin(creds identity.CredentialStore) error {
	userCount, err := countUsers(creds)
	if err != nil {
		return err
	}

	adder, ok := creds.(interface {
		CreateWithHash(username, passwordHash string) error
	})
	if !ok {
		return fmt.Errorf("identity backend %T cannot create the admin user", creds)
	}

	password, created, err := identity.EnsureAdmin(adder, userCount)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Created admin user %q with password: %s\n", identity.AdminUsername, password)
		fmt.Println("This password is shown once. Store it securely.")
	}
	return nil
}

// countUsers reports how many users an identity backend already holds.
// MemStore counts in-process; badgerstore.Store counts its persisted keys.
func countUsers(creds identity.CredentialStore) (int, error) {
	switch s := creds.(type) {
	case *identity.MemStore:
		return s.Count(), nil
	case *identitybadger.Store:
		return s.Count()
	default:
		return 0, fmt.Errorf("identity backend %T does not support counting users", creds)
	}
}
