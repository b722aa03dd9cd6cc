package v2

import (
	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// ToGocqlConsistency converts a cql Consistency to gocql.Consistency.
//
// Parameters:
//   - c: cqlboot consistency level
//
// Returns:
//   - gocql.Consistency: The equivalent gocql consistency level
func ToGocqlConsistency(c cql.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlConsistency converts a gocql.Consistency to cql Consistency.
func FromGocqlConsistency(c gocql.Consistency) cql.Consistency {
	return cql.Consistency(c)
}

// ToGocqlBatchType converts a cql BatchType to gocql.BatchType.
func ToGocqlBatchType(bt cql.BatchType) gocql.BatchType {
	return gocql.BatchType(bt)
}

// UnwrapSession returns the underlying gocql session of a v2 adapter, or
// nil when s was created by another adapter.
func UnwrapSession(s cql.Session) *gocql.Session {
	if v2Session, ok := s.(*Session); ok {
		return v2Session.Unwrap()
	}

	return nil
}
