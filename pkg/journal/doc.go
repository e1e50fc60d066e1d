// Package journal provides optional local persistence for finalized
// traces, independent of report delivery.
//
// # Overview
//
// The journal is a best-effort side channel: every finalized trace can be
// written to a local store for later inspection, while the reporting
// pipeline ships the same trace to the remote endpoint. A journal write
// failure never affects delivery.
//
// Two backends are available, selected by configuration:
//
//   - memory: process-local, for tests and short-lived tooling
//   - sqlite: durable single-file store for single-instance deployments
//
// # Usage
//
//	storage, err := journal.NewStorage(&cfg.Journal)
//	if err != nil { ... }
//	defer storage.Close()
//
//	entry, err := journal.NewEntry(finalizedTrace)
//	if err == nil {
//		_ = storage.Store(ctx, entry)
//	}
//
// # Retention
//
// The Pruner deletes entries older than the configured retention period
// on a cron schedule:
//
//	pruner := journal.NewPruner(storage, &cfg.Journal.Retention)
//	if err := pruner.Start(ctx); err != nil { ... }
//	defer pruner.Stop()
package journal
