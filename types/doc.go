// Package types contains the shared value types, interfaces, and sentinel
// errors used across the ferry library.
//
// The root ferry package re-exports the public subset of this package via type
// aliases. Internal packages import types directly, which keeps them free of a
// dependency on the root package and avoids import cycles.
package types
