package main

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/brokerd/broker/internal/lifecycle"
	"github.com/brokerd/broker/internal/observability"
	"github.com/brokerd/broker/pkg/config"
	"github.com/brokerd/broker/pkg/logger"
)

func runServer(configFile string, spawnArgs []string) error {
	app := fx.New(
		logger.Module("brokerd"),
		config.Module(config.Options{ConfigFile: configFile}),
		fx.Supply(SpawnArgs(spawnArgs)),
		Module(),
	)
	app.Run()
	return nil
}

// Module wires every broker-core component together with fx, mirroring
// how the value store, lease table, sweeper, and socket server compose
// under lifecycle.Controller.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			observability.NewMetrics,
			NewValueStore,
			NewLeaseStore,
			NewSweeper,
			NewAuthenticator,
			NewDeps,
			NewWireServer,
			NewController,
			NewHTTPExportServer,
			NewHTTPServer,
		),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks starts and stops the broker runtime using fx's
// lifecycle, mirroring the teacher's http.Server hook pattern but
// sequencing through lifecycle.Controller instead of net/http directly.
func RegisterHooks(lc fx.Lifecycle, controller *lifecycle.Controller, httpSrv *http.Server, spawn SpawnArgs, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := controller.Start(context.Background()); err != nil {
				return err
			}
			logger.Info("broker started", zap.String("endpoint", controller.EndpointPath()))

			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("observability http server failed", zap.Error(err))
				}
			}()

			if len(spawn) > 0 {
				if err := controller.Spawn(context.Background(), spawn[0], spawn[1:]); err != nil {
					return err
				}
				logger.Info("spawned child process", zap.String("command", strings.Join(spawn, " ")))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var errs error
			if err := httpSrv.Shutdown(ctx); err != nil {
				errs = multierr.Append(errs, err)
			}
			if err := controller.Stop(); err != nil {
				errs = multierr.Append(errs, err)
			}
			return errs
		},
	})
}
