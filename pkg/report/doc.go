// Package report batches finalized traces into reports and ships them to
// the remote ingestion endpoint.
//
// # Report Cycle
//
// The Scheduler owns one open report at a time. Each trace completion is
// a single atomic step: append, evaluate the size and time thresholds,
// and, when one holds, close the report and re-open an empty one. A
// background timer feeds the same synchronized transition so partial
// reports still flush during low-traffic periods. Closed reports travel
// through a buffered channel to an async ship worker, keeping delivery
// off the request path.
//
//	scheduler := report.NewScheduler(&cfg.Reporting, report.NewSender(&cfg.Reporting), metrics)
//	defer scheduler.Close()
//
//	scheduler.Add(finalizedTrace) // from the instrumentation callback
//	scheduler.Flush(ctx)          // force delivery before shutdown
//
// # Size Estimation
//
// The size threshold uses the first trace of each cycle as a per-trace
// proxy: the open report's estimated size is firstTraceSize * traceCount.
// This keeps appends O(1) but can misestimate badly when trace sizes vary
// within one cycle; it is a known accuracy trade-off, not a bug.
//
// # Delivery
//
// The Sender makes exactly one delivery attempt per report: gzip-
// compressed JSON with the API key and graph ref headers. Failures are
// logged and the batch is dropped; nothing in this package ever retries,
// requeues, or propagates an error into GraphQL request handling.
package report
