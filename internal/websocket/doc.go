// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package websocket pushes live activity to connected dashboards.

The Hub keeps the set of connected clients and broadcasts typed messages
to all of them. Each Client runs a read pump (answering application level
pings) and a write pump (draining its send queue and keeping the
connection alive with protocol pings).

Message types:

  - activity: a newly recorded event with its classifier judgement
  - snapshot_update: a freshly built dashboard snapshot
  - ping / pong: application level keepalive initiated by the client

Slow clients whose queue is full are disconnected rather than allowed to
stall the broadcast loop.

Usage:

	hub := websocket.NewHub()
	go hub.Serve(ctx)

	// recorded events arrive from the event bus
	consumer := eventbus.NewConsumer(bus, "websocket-hub", hub.HandleActivity)

	// upgrade endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
	    websocket.ServeWS(hub, upgrader, w, r)
	})
*/
package websocket
