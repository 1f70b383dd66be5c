package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/application/agency"
	"github.com/example/rental-broker/internal/application/company"
	"github.com/example/rental-broker/internal/application/scheduler"
	"github.com/example/rental-broker/internal/application/usecases"
	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/config"
	"github.com/example/rental-broker/internal/infrastructure/directory"
	"github.com/example/rental-broker/internal/infrastructure/fleetfile"
	"github.com/example/rental-broker/internal/infrastructure/logging"
	"github.com/example/rental-broker/internal/infrastructure/postgres"
	"github.com/example/rental-broker/internal/infrastructure/remote"
	"github.com/example/rental-broker/internal/interfaces/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Register the manifest's providers and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv(configFile)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.DevMode)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if !cfg.DevMode {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			manifest, err := fleetfile.LoadManifest(cfg.FleetManifest)
			if err != nil {
				return err
			}

			var fleets usecases.FleetLoader
			if cfg.DatabaseURL != "" {
				pool, err := postgres.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				if migrateUp {
					if err := postgres.Migrate(ctx, pool); err != nil {
						return err
					}
				}
				fleets = postgres.NewFleetRepo(pool)
			}

			newRemote := func(name, baseURL string) rental.Provider {
				return remote.New(name, baseURL,
					remote.WithTimeout(cfg.RemoteTimeout),
					remote.WithLogger(log.With(zap.String("provider", name))))
			}
			selectCar, _ := rental.SelectorByName(cfg.Selection)

			dir, err := directory.NewMemory()
			if err != nil {
				return err
			}
			registered, err := usecases.RegisterProviders{
				Directory: dir,
				Fleets:    fleets,
				Remote:    newRemote,
				Company:   []company.Option{company.WithSelector(selectCar)},
				Log:       log,
			}.Execute(ctx, manifest)
			if err != nil {
				return err
			}
			log.Info("providers ready", zap.Strings("providers", registered))

			a := agency.New(dir, log)
			ws := web.New(a, web.NewSessionManager(cookieKeys(cfg, log)),
				web.WithLogger(log), web.WithRemoteFactory(newRemote))

			var statsDone <-chan struct{}
			if cfg.StatsSchedule != "" {
				mgr, err := a.StartManagerSession("stats")
				if err != nil {
					return err
				}
				statsDone, err = scheduler.Start(ctx, cfg.StatsSchedule, scheduler.StatsJob{Manager: mgr, Log: log})
				if err != nil {
					return err
				}
			}

			err = web.Start(ctx, cfg.HTTPAddr, ws.Routes(), log)
			cancel()
			if statsDone != nil {
				<-statsDone
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup when DATABASE_URL is set")
	return cmd
}

// cookieKeys returns the configured cookie keys, generating random ones
// when they are missing. Generated keys do not survive a restart.
func cookieKeys(cfg config.Config, log *zap.Logger) (hashKey, blockKey []byte) {
	hashKey, blockKey = cfg.CookieHashKey, cfg.CookieBlockKey
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(64)
		log.Warn("COOKIE_HASH_KEY not set, using a random key")
	}
	if len(blockKey) == 0 {
		blockKey = securecookie.GenerateRandomKey(32)
		log.Warn("COOKIE_BLOCK_KEY not set, using a random key")
	}
	return hashKey, blockKey
}

func openFleetRepo(ctx context.Context, cfg config.Config) (*postgres.FleetRepo, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return postgres.NewFleetRepo(pool), pool.Close, nil
}
