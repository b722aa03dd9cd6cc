package policy

import (
	"errors"
	"strings"

	"github.com/arloliu/cqlboot/types"
)

// CQL protocol error codes that indicate the configured identity or
// keyspace is missing rather than the cluster being unreachable.
const (
	codeBadCredentials = 0x0100
	codeUnauthorized   = 0x2100
	codeInvalid        = 0x2200
)

// Classifier decides whether a dial failure can be recovered by
// provisioning or should be retried as a connectivity problem.
type Classifier interface {
	Classify(err error) types.FailureClass
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(err error) types.FailureClass

// Classify calls f(err).
func (f ClassifierFunc) Classify(err error) types.FailureClass {
	return f(err)
}

// requestError is satisfied by the protocol errors of both gocql drivers.
type requestError interface {
	Code() int
	Message() string
}

var authMessages = []string{
	"provided username",
	"password are incorrect",
	"bad credentials",
	"authentication failed",
	"authentication required",
	"authenticationexception",
	"unauthorized",
}

// DefaultClassifier classifies driver errors by protocol error code and,
// when the driver flattened the error into text, by message.
//
// Anything it does not recognize is ClassConnectivity, so an unknown error
// is retried rather than triggering provisioning.
func DefaultClassifier() Classifier {
	return ClassifierFunc(classify)
}

func classify(err error) types.FailureClass {
	if err == nil {
		return types.ClassConnectivity
	}
	if errors.Is(err, types.ErrAuthOrKeyspaceMissing) {
		return types.ClassAuthOrKeyspace
	}
	if errors.Is(err, types.ErrConnectivity) {
		return types.ClassConnectivity
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		switch reqErr.Code() {
		case codeBadCredentials, codeUnauthorized:
			return types.ClassAuthOrKeyspace
		case codeInvalid:
			if isMissingKeyspace(strings.ToLower(reqErr.Message())) {
				return types.ClassAuthOrKeyspace
			}
		}
	}

	msg := strings.ToLower(err.Error())
	if isMissingKeyspace(msg) {
		return types.ClassAuthOrKeyspace
	}
	for _, m := range authMessages {
		if strings.Contains(msg, m) {
			return types.ClassAuthOrKeyspace
		}
	}

	return types.ClassConnectivity
}

func isMissingKeyspace(msg string) bool {
	return strings.Contains(msg, "keyspace") &&
		(strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found"))
}
