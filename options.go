package ferry

// Option configures a Manager with optional dependencies.
type Option func(*managerOptions)

// managerOptions holds optional Manager configuration.
type managerOptions struct {
	handler Handler
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
}

// WithHandler sets the record handler workers deliver fetched records to.
//
// Without a handler, fetched records are discarded and only the cursors
// advance, which is useful for load tests but rarely what production wants.
//
// Parameters:
//   - handler: Handler implementation (see HandlerFunc for a func adapter)
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	mgr, err := ferry.NewManager(&cfg, meta, factory,
//	    ferry.WithHandler(ferry.HandlerFunc(func(ctx context.Context, id ferry.PartitionID, recs []ferry.Record) error {
//	        return process(id, recs)
//	    })),
//	)
func WithHandler(handler Handler) Option {
	return func(o *managerOptions) {
		o.handler = handler
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewManager
func WithHooks(hooks *Hooks) Option {
	return func(o *managerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation (e.g. prommetrics.NewCollector)
//
// Returns:
//   - Option: Functional option for NewManager
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *managerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	mgr, err := ferry.NewManager(&cfg, meta, factory, ferry.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}
