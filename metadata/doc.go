// Package metadata provides cluster metadata clients for leader discovery.
//
// Two implementations are included:
//   - NATSClient: reads node liveness from a JetStream KV bucket and resolves
//     partition leadership over NATS request/reply
//   - Static: a fixed, in-memory topology for tests and single-node setups
//
// The wire types (LeadershipRequest, LeadershipReply) are exported so server
// processes and test fixtures can speak the same protocol.
package metadata
