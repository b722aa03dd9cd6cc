// Package types provides shared types and error definitions for the cqlboot library.
//
// This is a leaf package with zero cqlboot imports to prevent import cycles.
// All packages in cqlboot can safely import this package.
//
// # Target
//
// A Target names the endpoint, keyspace and configured credentials a
// connection manager works towards:
//
//	target := types.Target{
//	    Endpoint:    types.Endpoint{Host: "localhost", Port: 9042},
//	    Keyspace:    types.NewKeyspace("chatapp"),
//	    Credentials: types.Credentials{Username: "appuser", Password: "apppass"},
//	}
//
// # States
//
// ConnectionState moves through Disconnected, Connecting, Bootstrapping,
// Connected and Failed. Only Connected carries a session.
//
// # Errors
//
// Sentinel errors are provided for the failure classes of the connect sequence:
//
//   - ErrAuthOrKeyspaceMissing: credentials rejected or keyspace absent (bootstrap path)
//   - ErrConnectivity: cluster unreachable, timeout or protocol error (retried)
//   - ErrProvisioningFailed: keyspace or user creation failed (fatal)
//   - ErrExhausted: all attempts failed (fatal)
//   - ErrAborted: cancelled by context or Shutdown
//   - ErrNotConnected: no session available yet
//
// ConnectionError and StageError wrap them together with the driver cause,
// so both errors.Is(err, types.ErrExhausted) and errors.As on the driver
// error work.
package types
