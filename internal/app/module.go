// Package app composes the client with fx: config, logging, bus, the history
// client, the conversation controller and the TUI shell.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"whychat/internal/api"
	"whychat/internal/bus"
	"whychat/internal/config"
	"whychat/internal/conversation"
	"whychat/internal/logging"
	"whychat/internal/stream"
	"whychat/internal/tui"
)

// Params holds the resolved startup configuration passed to the fx module.
type Params struct {
	Config *config.Config
	Sender string
}

// Module returns the fx module for the client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("whychat",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideAPIClient,
			provideController,
			provideTUI,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := config.EnsureDirs(); err != nil {
		return nil, err
	}
	return logging.New(config.LogPath(), p.Sender)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideAPIClient(p Params) *api.Client {
	return api.NewClient(p.Config.ServerURL)
}

func provideController(p Params, apiClient *api.Client, b *bus.Bus, logger *zap.Logger) (*conversation.Controller, error) {
	wsBase, err := p.Config.WebSocketURL()
	if err != nil {
		return nil, err
	}
	return conversation.NewController(apiClient, wsBase, b, logger,
		stream.WithReconnectDelay(p.Config.ReconnectDelay())), nil
}

func provideTUI(p Params, ctrl *conversation.Controller, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(ctrl, b, logger, p.Sender, p.Config.DefaultConversation)
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *tui.App, ctrl *conversation.Controller, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("client starting")
			go func() {
				if err := app.Run(); err != nil {
					logger.Error("tui error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			ctrl.Leave()
			app.Stop()
			logger.Info("client stopped")
			return nil
		},
	})
}
