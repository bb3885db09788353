// Package requestlog ties structured lifecycle logging to individual
// HTTP requests: one trace record on arrival, one leveled record on
// completion, and an alarm in between if the response never comes.
//
// # Request Context
//
// Every request gets exactly one Context carrying its id (propagated
// from X-Request-ID or generated), its start time, and a child logger
// scoped with request_id. The Context travels on the request's
// context.Context, so handlers and downstream clients share the same
// identity:
//
//	rc := requestlog.FromRequest(r)
//	rc.Log.Info().Msg("charging card")
//
// # Lifecycle Records
//
// The middleware emits the arrival record at trace level and the final
// record at a level decided by how the request ended: info for clean
// responses, warn for client errors (stack stripped), error for server
// errors and handler-reported business failures. The final record
// message is "<METHOD> <PATH> <STATUS> (<ELAPSEDms>)" and both records
// share the request id.
//
// A one-shot alarm is armed at arrival; a request still in flight after
// the configured timeout logs a single "is unresponsive" record at
// error level. Clearing the alarm is idempotent.
//
// # Runtime Probes
//
// A process-wide sampler estimates scheduler lag from periodic timer
// drift and stamps the current reading on every lifecycle record. A
// GCStatsSource (the runtime-polling GCWatcher by default, or anything
// implementing Subscribe) can be attached so each garbage collection
// emits an info-level "GC" record.
//
// Example:
//
//	log := requestlog.New(requestlog.DefaultConfig(),
//		requestlog.WithName("orders"),
//		requestlog.WithSkipPaths("/health"),
//	)
//	defer log.Close()
//
//	r := chi.NewRouter()
//	r.Use(log.Middleware())
package requestlog
