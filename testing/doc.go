// Package testing provides test utilities for the ferry library.
//
// It follows Go's convention of shipping test helpers in a dedicated package
// (similar to net/http/httptest). The main helper is an embedded NATS server
// with JetStream so NATS-backed collaborators can be tested in-process,
// without Docker or an external broker.
//
// Example usage:
//
//	import (
//	    "testing"
//	    ferrytest "github.com/arloliu/ferry/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := ferrytest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
