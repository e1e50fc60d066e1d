// Mercator Saturn is a GraphQL trace reporting agent.
//
// It instruments a graphql-go schema so every request produces a trace
// tree of resolver timings and errors, batches finalized traces into
// reports, and ships them to a remote ingestion endpoint. The saturn
// binary provides the supporting tooling around the embedded agent:
//
//	# Validate a configuration file
//	saturn validate --config saturn.yaml
//
//	# Inspect the local trace journal
//	saturn journal --config saturn.yaml --operation GetOrders
//
//	# Prune journal entries past the retention period
//	saturn journal prune --config saturn.yaml
//
//	# Show version information
//	saturn version
//
// For complete documentation, see: https://github.com/mercator-hq/saturn
package main

func main() {
	Execute()
}
