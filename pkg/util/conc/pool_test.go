package conc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	pool := NewPool[int](4)
	defer pool.Release()
	assert.Equal(t, 4, pool.Cap())

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	assert.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.Equal(t, i*i, f.Value())
	}
}

func TestPoolError(t *testing.T) {
	pool := NewPool[int](2)
	defer pool.Release()

	errBoom := errors.New("boom")
	ok := pool.Submit(func() (int, error) { return 1, nil })
	bad := pool.Submit(func() (int, error) { return 0, errBoom })
	assert.ErrorIs(t, AwaitAll(ok, bad), errBoom)
	assert.True(t, ok.OK())
	assert.False(t, bad.OK())
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("boom") })
	_, err := f.Await()
	assert.ErrorContains(t, err, "boom")
}

func TestGo(t *testing.T) {
	f := Go(func() (string, error) { return "done", nil })
	v, err := f.Await()
	assert.NoError(t, err)
	assert.Equal(t, "done", v)
	<-f.Inner()
}
