package closer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestCloserGroup_Close(t *testing.T) {
	var order []string
	record := func(name string, err error) Closer {
		return CloserFunc(func() error {
			order = append(order, name)
			return err
		})
	}

	errCache := errors.New("cache close failed")
	errBroker := errors.New("broker close failed")

	group := NewCloserGroup(record("db", nil), record("cache", errCache))
	group.Add(record("broker", errBroker))

	err := group.Close()

	assert.Equal(t, []string{"broker", "cache", "db"}, order)
	assert.ErrorIs(t, err, errCache)
	assert.ErrorIs(t, err, errBroker)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestCloserGroup_Empty(t *testing.T) {
	assert.NoError(t, NewCloserGroup().Close())
}
