package types

import "context"

// Handler consumes the records a worker fetched for one partition.
//
// The handler runs on the worker's goroutine. When it returns an error the
// worker does not advance the partition's cursor, so the same records are
// redelivered on the next fetch (at-least-once semantics). Implementations
// must be safe for concurrent calls from different workers.
type Handler interface {
	// HandleRecords processes records fetched for the given partition.
	//
	// Parameters:
	//   - ctx: Worker context, cancelled when the worker stops
	//   - id: Partition the records belong to
	//   - records: Fetched records in offset order (never empty)
	//
	// Returns:
	//   - error: Non-nil prevents the cursor from advancing
	HandleRecords(ctx context.Context, id PartitionID, records []Record) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, id PartitionID, records []Record) error

// HandleRecords calls f(ctx, id, records).
func (f HandlerFunc) HandleRecords(ctx context.Context, id PartitionID, records []Record) error {
	return f(ctx, id, records)
}
