package pipeline

import (
	"log/slog"
	"sync"
)

// Completion is the single-use handle an async plugin resolves when it is
// finished. Only the first resolution counts; later calls are logged and
// dropped.
type Completion struct {
	once   sync.Once
	done   chan struct{}
	err    error
	logger *slog.Logger
	name   string
}

func newCompletion(name string, logger *slog.Logger) *Completion {
	return &Completion{done: make(chan struct{}), logger: logger, name: name}
}

// Done resolves successfully.
func (c *Completion) Done() { c.Resolve(nil) }

// Fail resolves with err. A nil err is treated as success.
func (c *Completion) Fail(err error) { c.Resolve(err) }

// Resolve records err (nil for success) and wakes the runner.
func (c *Completion) Resolve(err error) {
	first := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		first = true
	})
	if !first && c.logger != nil {
		c.logger.Warn("Plugin resolved its completion more than once; ignoring",
			slog.String("plugin", c.name))
	}
}

// Wait returns a channel closed once the completion is resolved.
func (c *Completion) Wait() <-chan struct{} { return c.done }

// Err returns the resolution error. It is only meaningful after Wait fires.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}
