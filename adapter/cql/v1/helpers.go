package v1

import (
	"github.com/gocql/gocql"

	"github.com/arloliu/cqlboot/adapter/cql"
)

// ToGocqlConsistency converts a cql Consistency to gocql.Consistency.
//
// Example:
//
//	cluster := gocql.NewCluster("127.0.0.1")
//	cluster.Consistency = v1.ToGocqlConsistency(cql.Quorum)
func ToGocqlConsistency(c cql.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlConsistency converts a gocql.Consistency to cql Consistency.
func FromGocqlConsistency(c gocql.Consistency) cql.Consistency {
	return cql.Consistency(c)
}

// ParseConsistency parses a consistency name such as "QUORUM" or "local_one".
func ParseConsistency(name string) (cql.Consistency, error) {
	c, err := gocql.ParseConsistencyWrapper(name)
	if err != nil {
		return cql.Any, err
	}

	return FromGocqlConsistency(c), nil
}

// UnwrapSession returns the underlying gocql session of a v1 adapter, or
// nil when s was created by another adapter.
func UnwrapSession(s cql.Session) *gocql.Session {
	if v1Session, ok := s.(*Session); ok {
		return v1Session.Unwrap()
	}

	return nil
}
