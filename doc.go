// Package cqlboot provides a connection manager that brings up a session to a
// Cassandra-compatible cluster and keeps it available to the rest of the process.
//
// On a fresh development cluster neither the application keyspace nor the
// application user exist yet. The Manager detects this, provisions both with
// the cluster's default superuser, and reconnects as the configured user.
// Unreachable clusters are retried with a bounded retry policy instead.
//
// # Key Features
//
//   - Self-provisioning: CREATE KEYSPACE and CREATE USER with IF NOT EXISTS
//   - Bounded retries: fixed or exponential delay between attempts
//   - Coalesced connects: concurrent Connect calls share one attempt
//   - Driver agnostic: gocql v1 and the Apache gocql v2 driver through adapters
//   - Structured logs: every stage logs its stage and outcome
//
// # Basic Usage
//
//	target := types.Target{
//	    Endpoint:    types.Endpoint{Host: "localhost", Port: 9042},
//	    Keyspace:    types.NewKeyspace("chatapp"),
//	    Credentials: types.Credentials{Username: "appuser", Password: "apppass"},
//	}
//
//	manager, err := cqlboot.NewManager(v1.NewDialer(), target,
//	    cqlboot.WithLogger(slog.Default()),
//	    cqlboot.WithRetryPolicy(policy.FixedDelay(5, 2*time.Second)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := manager.Connect(ctx); err != nil {
//	    log.Fatal(err) // do not serve traffic without a session
//	}
//	defer manager.Shutdown(context.Background())
//
//	session, err := manager.Session()
//
// # Connect Sequence
//
// Each attempt runs these steps:
//
//  1. Dial with the configured credentials, bound to the configured keyspace.
//  2. On success, publish the session and move to Connected.
//  3. On a rejected login or missing keyspace, move to Bootstrapping:
//     dial with the default credentials, create the keyspace, bind to it,
//     create the configured user as a superuser, close the bootstrap handle
//     and dial with the configured credentials once more.
//  4. On any other failure, move to Failed and let the retry loop try again.
//
// # Error Handling
//
// Connect returns a *types.ConnectionError whose Kind tells the caller what
// happened:
//
//   - types.ErrExhausted: every attempt failed with a connectivity error
//   - types.ErrProvisioningFailed: the keyspace or user could not be
//     provisioned, or the configured user is still rejected afterwards
//   - types.ErrAborted: the caller's context ended or Shutdown was called
//
// Provisioning failures are never retried, since re-running a partially
// applied bootstrap is not well defined.
//
//	err := manager.Connect(ctx)
//	switch {
//	case errors.Is(err, types.ErrProvisioningFailed):
//	    // fix credentials or permissions, retrying will not help
//	case errors.Is(err, types.ErrExhausted):
//	    // cluster unreachable
//	}
//
// # Session Ownership
//
// CurrentSession and Session return a shared view of the active session.
// Its Close method does nothing; only Shutdown closes the real session.
package cqlboot
