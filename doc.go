// Package ferry coordinates the consumer side of a partitioned messaging
// client: it discovers which node leads each partition and keeps exactly one
// fetch worker per leader node pulling records for the partitions that node
// serves.
//
// Ferry deliberately owns only the fetch path. Partition ownership (which
// partitions this consumer should read at all) is decided elsewhere, for
// example by a group rebalance protocol, and handed to ferry as a set of
// cursors when a session starts.
//
// # Core Concepts
//
// Session: the unit of coordination. StartSession supplies one cursor per
// owned partition; StopSession tears everything down. Sessions are serial,
// never concurrent.
//
// Cursor: a partition's fetch position. Exactly one worker advances a cursor
// at any time, so offsets never regress or skip.
//
// Unresolved set: partitions whose leader is unknown. Partitions enter it at
// session start and re-enter it whenever a fetch fails with a leadership
// error; the discovery loop drains it by querying cluster metadata.
//
// Discovery loop: a background goroutine that sleeps while every partition is
// routed, wakes when any partition becomes unresolved, resolves leadership,
// and re-routes workers.
//
// Worker pool: one goroutine per distinct leader node. Routing a partition to
// a node's worker implicitly detaches it from its previous worker; workers
// left with no partitions are reaped at the end of each discovery round.
//
// # Usage
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//
//	meta, _ := metadata.NewNATSClient(nc, metadata.ClientConfig{})
//	factory := fetcher.NewNATSFactory(nc, fetcher.Config{})
//
//	cfg := ferry.Config{}
//	mgr, err := ferry.NewManager(&cfg, meta, factory,
//	    ferry.WithHandler(ferry.HandlerFunc(func(ctx context.Context, id ferry.PartitionID, recs []ferry.Record) error {
//	        for _, r := range recs {
//	            process(id, r)
//	        }
//	        return nil
//	    })),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cursors := []*ferry.Cursor{
//	    ferry.NewCursor(ferry.PartitionID{Topic: "orders", Index: 0}, 0),
//	    ferry.NewCursor(ferry.PartitionID{Topic: "orders", Index: 1}, 0),
//	}
//	if err := mgr.StartSession(cursors, nil); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.StopSession(context.Background())
//
// # Failure Feedback
//
// When a caller learns out-of-band that a partition's leadership moved (a
// worker surfaces this automatically for "not leader" fetch errors), it
// reports the partition with MarkUnresolved and the loop re-routes it:
//
//	mgr.MarkUnresolved(ferry.PartitionID{Topic: "orders", Index: 1})
//
// # Shutdown Semantics
//
// StopSession follows a strict order: the discovery loop is stopped and
// joined first, then every worker, then registry state is cleared. Errors
// during shutdown are fatal to the session but never block it; errors at any
// other time are logged and retried.
package ferry
