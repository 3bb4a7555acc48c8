// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

/*
Package analytics turns a window of activity events into an
AnalyticsSnapshot.

Aggregate is a pure function: the same input window always yields the
same counts, and every histogram is emitted in a stable order (count
descending then key ascending; hours ascending) so that snapshots can be
compared directly. Reducers read disjoint event fields and are evaluated
in a single pass.

Hour-of-day buckets use the aggregating process's clock zone by default,
not the zone of the device that produced the event. Across time zones
this skews the hourly histogram; WithLocation selects a fixed zone when
that matters.

ComputeSessionStats pairs login and logout events by session id. Two
figures are placeholders carried over from the dashboard contract:
totalSessions is the distinct user count (one session per user is
assumed) and activeSessions is a fixed 70% of it.
*/
package analytics
