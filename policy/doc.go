// Package policy provides the retry policy and the failure classifier used by
// the cqlboot connection manager.
//
// # Retry Policy
//
// [RetryPolicy] bounds the outer connect loop. The manager makes at most
// MaxAttempts attempts and sleeps between them, never after the last one:
//
//	manager, _ := cqlboot.NewManager(dialer, target,
//	    cqlboot.WithRetryPolicy(policy.FixedDelay(3, time.Second)),
//	)
//
// For clusters that take a while to come up, an exponential policy spreads
// attempts out:
//
//	cqlboot.WithRetryPolicy(policy.Exponential(10, 500*time.Millisecond, 30*time.Second))
//
// # Classifier
//
// A [Classifier] maps a dial error to one of two classes:
//
//   - types.ClassAuthOrKeyspace: bad credentials, unauthorized, or a missing
//     keyspace. The manager recovers by provisioning.
//   - types.ClassConnectivity: everything else. The manager retries.
//
// [DefaultClassifier] recognizes CQL protocol error codes from both gocql
// drivers and falls back to matching the error text.
package policy
