// Package agent assembles the Saturn trace reporting pipeline for a host
// GraphQL server.
//
// # Overview
//
// The agent instruments a graphql-go schema so every request produces a
// trace tree of resolver timings and errors, batches finalized traces
// into reports, and ships them asynchronously to the configured
// ingestion endpoint. Request handling never blocks on, and never fails
// because of, trace delivery.
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("saturn.yaml")
//	if err != nil { ... }
//
//	a, err := agent.New(cfg)
//	if err != nil { ... }
//	defer a.Close()
//
//	if err := a.InstrumentSchema(&schema); err != nil { ... }
//
//	// Serve GraphQL as usual; traces flow in the background.
//	result := graphql.Do(graphql.Params{Schema: schema, RequestString: query, Context: ctx})
//
// Short-lived processes set reporting.send_reports_immediately or call
// Flush before exiting.
package agent
