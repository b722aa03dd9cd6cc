// Package config loads the settings of the cqlboot binary.
//
// Settings are merged from, in increasing precedence:
//
//  1. Default()
//  2. a YAML file (--config)
//  3. dotenv files, loaded into the process environment by LoadEnvFiles
//  4. environment variables (CASSANDRA_HOST, CASSANDRA_PORT,
//     CASSANDRA_KEYSPACE, CASSANDRA_USERNAME, CASSANDRA_PASSWORD,
//     DB_TIMEOUT, ...)
//  5. command line flags registered by RegisterFlags
//
// Duration variables (DB_TIMEOUT, CASSANDRA_DIAL_TIMEOUT,
// CASSANDRA_RETRY_DELAY, CASSANDRA_RETRY_MAX_DELAY) take either a bare
// number of seconds or a Go duration such as 500ms.
//
// Example YAML:
//
//	cassandra:
//	  host: localhost
//	  port: 9042
//	  keyspace: chatapp
//	  username: appuser
//	  password: apppass
//	  driver: v2
//	retry:
//	  max_attempts: 5
//	  delay: 2s
//	log:
//	  level: debug
//	  format: json
package config
