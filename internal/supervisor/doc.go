// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package supervisor provides process supervision for FieldPulse using suture v4.

Long-running components are grouped into three child supervisors so that a
crash in one layer restarts only that layer:

	RootSupervisor ("fieldpulse")
	├── StorageSupervisor ("storage-layer")
	│   ├── session registry sweeper
	│   └── outbox retrier (if OUTBOX_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub
	│   ├── event bus consumer (bus to hub)
	│   └── dashboard refresher
	└── APISupervisor ("api-layer")
	    └── HTTP server

Supervisor events (start, failure, backoff, restart) are logged through
sutureslog with an slog handler backed by the zerolog logger:

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("supervisor tree stopped")
	}

Services return ctx.Err() on shutdown. Returning suture.ErrDoNotRestart
stops a service for good; any other error restarts it with backoff.
*/
package supervisor
