// Package app wires the desk process together: durable storage, the content
// API client, the session store and the router. Both the CLI and the console
// run on one App.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/inkpress/desk/internal/client"
	"github.com/inkpress/desk/internal/config"
	"github.com/inkpress/desk/internal/router"
	"github.com/inkpress/desk/internal/session"
	"github.com/inkpress/desk/internal/storage"
)

type App struct {
	Config  *config.Config
	Client  *client.Client
	Session *session.Store
	Router  *router.Router

	storage storage.Storage
}

// New builds the application from cfg. The session is not restored yet; call
// Initialize or let the first guarded navigation do it.
func New(cfg *config.Config) (*App, error) {
	store, err := storage.Open(storage.Options{
		Driver:    storage.Driver(cfg.Storage.Driver),
		Path:      cfg.Storage.Path,
		Namespace: cfg.GetAPIHostname(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential storage: %w", err)
	}

	return NewWithStorage(cfg, store)
}

// NewWithStorage builds the application on an existing storage.
func NewWithStorage(cfg *config.Config, store storage.Storage) (*App, error) {
	api := client.New(client.Options{
		Endpoint: cfg.GetAPIEndpoint(),
		Base:     cfg.API.Base,
		Timeout:  cfg.API.Timeout,
	})

	sessions := session.New(api, store,
		session.WithInitTimeout(cfg.Session.InitTimeout),
	)

	// Every request authenticates with whatever the session holds
	api.SetTokenSource(sessions)

	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		return nil, fmt.Errorf("failed to build route table: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"api":     api.BaseURL(),
		"storage": cfg.Storage.Driver,
	}).Debugln("Application created")

	return &App{
		Config:  cfg,
		Client:  api,
		Session: sessions,
		Router:  router.New(table, sessions),
		storage: store,
	}, nil
}

// Initialize restores the stored session. It is safe to call any number of
// times.
func (a *App) Initialize(ctx context.Context) {
	a.Session.Initialize(ctx)
}

func (a *App) Close() error {
	if closer, ok := a.storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
