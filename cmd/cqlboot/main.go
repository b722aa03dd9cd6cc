// Command cqlboot connects to a Cassandra-compatible cluster, provisions the
// application keyspace and user on first run, and reports readiness.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
