// Package fetcher provides node fetcher implementations for the worker pool.
//
// NATSFetcher pulls records from a node over NATS request/reply using a JSON
// wire format; NewNATSFactory adapts it to the pool's factory interface. The
// wire types are exported so server processes and test fixtures can answer
// fetch requests with the same protocol.
package fetcher
