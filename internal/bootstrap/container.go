package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/blob"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/cache"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/db"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/logger"
	mq "github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/queue"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/handler"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/resolver"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

// BuildContainer wires every provider around an already loaded config.
// Nothing is constructed until it is first invoked.
func BuildContainer(cfg *config.Config) *do.Injector {
	inj := do.New()

	// config
	do.ProvideValue(inj, cfg)

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Telemetry.Enabled {
			if err := db.RegisterOpenTelemetryPlugin(d); err != nil {
				return nil, err
			}
		}
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(d); err != nil {
				return nil, err
			}
		}
		return d, nil
	})

	// Redis, only invoked when cache invalidation is shared across instances
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		return cache.NewClient(do.MustInvoke[*config.Config](i))
	})

	// snapshot cache
	do.Provide(inj, func(i *do.Injector) (*cache.Registry, error) {
		return cache.NewRegistry(do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*cache.Broadcaster, error) {
		return cache.NewInvalidationBus(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*cache.Registry](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// RabbitMQ DialFunc for connection and reconnection
	do.Provide(inj, func(i *do.Injector) (mq.DialFunc, error) {
		cfg := do.MustInvoke[*config.Config](i)

		dialFn := func() (*amqp.Connection, error) {
			useTLS := cfg.RabbitMQ.EnableTLS || strings.HasPrefix(cfg.RabbitMQ.URL, "amqps://")
			if useTLS {
				tlsConfig := &tls.Config{
					MinVersion: tls.VersionTLS12,
				}
				url := cfg.RabbitMQ.URL
				if strings.HasPrefix(url, "amqp://") {
					url = strings.Replace(url, "amqp://", "amqps://", 1)
				}
				return amqp.DialTLS(url, tlsConfig)
			}
			return amqp.Dial(cfg.RabbitMQ.URL)
		}

		return dialFn, nil
	})
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		dialFn := do.MustInvoke[mq.DialFunc](i)
		return dialFn()
	})
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		return mq.NewPublisher(
			do.MustInvoke[*amqp.Connection](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[mq.DialFunc](i),
		)
	})

	// registry events go to the exchange when rabbitmq is on, else to the log
	do.Provide(inj, func(i *do.Injector) (service.Notifier, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		if !cfg.RabbitMQ.Enabled {
			return service.NewLogNotifier(log), nil
		}
		pub, err := do.Invoke[*mq.Publisher](i)
		if err != nil {
			return nil, err
		}
		return mq.NewEventNotifier(pub, cfg, log), nil
	})

	// asset storage
	do.Provide(inj, func(i *do.Injector) (blob.AssetStore, error) {
		return blob.New(context.Background(), do.MustInvoke[*config.Config](i))
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.GameRepo, error) {
		return repo.NewGameRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.GameVersionRepo, error) {
		return repo.NewGameVersionRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.VersionRepo, error) {
		return repo.NewVersionRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.EditRequestRepo, error) {
		return repo.NewEditRequestRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.UserRepo, error) {
		return repo.NewUserRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.Catalog, error) {
		return service.NewCatalog(
			do.MustInvoke[*cache.Registry](i),
			do.MustInvoke[repo.GameRepo](i),
			do.MustInvoke[repo.GameVersionRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.VersionRepo](i),
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[repo.EditRequestRepo](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.StatusService, error) {
		return service.NewStatusService(
			do.MustInvoke[repo.GameRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.VersionRepo](i),
			do.MustInvoke[blob.AssetStore](i),
			do.MustInvoke[service.Catalog](i),
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.EditQueue, error) {
		return service.NewEditQueue(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.VersionRepo](i),
			do.MustInvoke[repo.EditRequestRepo](i),
			do.MustInvoke[service.Catalog](i),
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.GameVersionService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewGameVersionService(
			do.MustInvoke[repo.GameRepo](i),
			do.MustInvoke[repo.GameVersionRepo](i),
			do.MustInvoke[repo.VersionRepo](i),
			do.MustInvoke[service.Catalog](i),
			do.MustInvoke[*zap.Logger](i),
			cfg.Registry.ResortWorkers,
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ApprovalService, error) {
		return service.NewApprovalService(
			do.MustInvoke[repo.EditRequestRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.VersionRepo](i),
			do.MustInvoke[service.GameVersionService](i),
			do.MustInvoke[service.Catalog](i),
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.GameService, error) {
		return service.NewGameService(
			do.MustInvoke[repo.GameRepo](i),
			do.MustInvoke[service.Catalog](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		return service.NewProjectService(
			do.MustInvoke[repo.GameRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[service.EditQueue](i),
			do.MustInvoke[service.Catalog](i),
			do.MustInvoke[service.Notifier](i),
			bluemonday.UGCPolicy(),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.VersionService, error) {
		return service.NewVersionService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.VersionRepo](i),
			do.MustInvoke[service.GameVersionService](i),
			do.MustInvoke[service.EditQueue](i),
			do.MustInvoke[service.Catalog](i),
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.UserService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewUserService(
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[service.Catalog](i),
			cfg.Auth,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ModsService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		mode, ok := resolver.ParseMode(cfg.Registry.ResolverMode)
		if !ok {
			mode = resolver.ModeClosure
		}
		return service.NewModsService(
			do.MustInvoke[service.Catalog](i),
			mode,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.GameHandler, error) {
		return handler.NewGameHandler(
			do.MustInvoke[service.GameService](i),
			do.MustInvoke[service.GameVersionService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.GameVersionHandler, error) {
		return handler.NewGameVersionHandler(do.MustInvoke[service.GameVersionService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(
			do.MustInvoke[service.ProjectService](i),
			do.MustInvoke[service.VersionService](i),
			do.MustInvoke[service.StatusService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.VersionHandler, error) {
		return handler.NewVersionHandler(
			do.MustInvoke[service.VersionService](i),
			do.MustInvoke[service.StatusService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ApprovalHandler, error) {
		return handler.NewApprovalHandler(do.MustInvoke[service.ApprovalService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ModsHandler, error) {
		return handler.NewModsHandler(do.MustInvoke[service.ModsService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.UserHandler, error) {
		return handler.NewUserHandler(do.MustInvoke[service.UserService](i)), nil
	})
	return inj
}

// InitTelemetry sets up tracing and metrics. It must run before the DB and
// Redis providers are first invoked so their plugins see the providers.
func InitTelemetry(cfg *config.Config) error {
	if _, err := telemetry.SetupTracing(cfg); err != nil {
		return err
	}
	if _, err := telemetry.SetupMetrics(cfg); err != nil {
		return err
	}
	return telemetry.InitRegistryMetrics()
}
