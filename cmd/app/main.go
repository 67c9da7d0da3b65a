package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nightowl-labs/linkvault-back/internal/archive"
	"github.com/nightowl-labs/linkvault-back/internal/config"
	"github.com/nightowl-labs/linkvault-back/internal/db"
	"github.com/nightowl-labs/linkvault-back/internal/meta"
	"github.com/nightowl-labs/linkvault-back/internal/service"
	"github.com/nightowl-labs/linkvault-back/internal/transport"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			func() (*zap.SugaredLogger, error) {
				l, err := zap.NewProduction()
				if err != nil {
					return nil, err
				}
				return l.Sugar(), nil
			},
			db.NewGormClient,
			func(cfg *config.Config, logger *zap.SugaredLogger) meta.Resolver {
				return meta.NewHTTPResolver(cfg.FetchTimeout(), logger)
			},
			func(cfg *config.Config) *archive.Store {
				return archive.NewStore(cfg.ArchiveDir)
			},
			service.NewGeneral,
			func(database *gorm.DB, resolver meta.Resolver, store *archive.Store, logger *zap.SugaredLogger, cfg *config.Config) *service.Links {
				return service.NewLinks(database, resolver, store, logger, cfg.DefaultLinkLimit)
			},
			transport.NewHTTPServer,
		),
		fx.Invoke(func(server *transport.HTTPServer) {}),
	)

	app.Run()
}
