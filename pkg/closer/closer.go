package closer

import "go.uber.org/multierr"

type (
	Closer interface {
		Close() error
	}

	// CloserFunc adapts a plain function to Closer
	CloserFunc func() error

	CloserGroup struct {
		closers []Closer
	}
)

func (f CloserFunc) Close() error { return f() }

func NewCloserGroup(closers ...Closer) *CloserGroup {
	return &CloserGroup{
		closers: closers,
	}
}

// Add registers more closers. They run in reverse registration order.
func (c *CloserGroup) Add(closers ...Closer) {
	c.closers = append(c.closers, closers...)
}

// Close closes every registered closer and combines their errors
func (c *CloserGroup) Close() error {
	var err error

	for i := len(c.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.closers[i].Close())
	}
	return err
}
