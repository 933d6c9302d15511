package server

import (
	"github.com/avendel/reqstress/internal/app"
	"github.com/avendel/reqstress/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server (the CLI
	// uses the orchestrator in-process and does not require the network).
	ListenAddr string

	// AppConfig is the orchestrator configuration. Nil selects defaults.
	AppConfig *app.Config

	// Logger receives request and handler logs. Nil selects stdout.
	Logger logging.Logger
}
