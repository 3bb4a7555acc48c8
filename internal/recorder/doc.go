// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package recorder composes and transmits activity events.

A Recorder merges the caller's semantic fields (action, description,
details) with device information from the profiler, the best position of
the session's tracker (or a network-based approximation when the tracker
has no fix), the session id and a timestamp, then sends the event to the
collection backend.

Recording is always secondary to the business action it instruments:
Record never returns an error and never panics. A failed transmission is
logged and reported as a nil event; when an outbox is configured the event
is buffered for retry instead of dropped.

Enrichment failures are returned as EnrichmentError values by each layer
and absorbed here, so every fallback is visible in logs and metrics:

	ev := rec.Record(ctx, recorder.Partial{
		Action:      models.ActionInvoiceCreate,
		Description: "Created invoice INV-001",
	})
	if ev == nil {
		// not recorded; the invoice itself is unaffected
	}

Typed helpers (RecordLogin, RecordInvoiceCreate, ...) fix the action, the
description template and the exact details keys for each action.
*/
package recorder
