package parstream

// Option configures a run.
type Option func(*config)

type config struct {
	panicToError bool
}

func defaultConfig() config {
	return config{
		panicToError: true,
	}
}

// WithPanicToError controls what happens when a worker panics. When enabled
// (the default) the panic is recovered and reported as the run's worker
// error. When disabled the panic value is re-thrown on the calling
// goroutine, after every in-flight worker has been drained.
func WithPanicToError(enabled bool) Option {
	return func(c *config) {
		c.panicToError = enabled
	}
}
