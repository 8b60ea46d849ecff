package compute

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	gotOpts Options
	gotTask *Task
	result  *ComputedTask
	err     error
}

func (f *fakeClient) Compute(ctx context.Context, opts Options, task *Task) (*ComputedTask, error) {
	f.gotOpts = opts
	f.gotTask = task
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestCompute_NoClient(t *testing.T) {
	SetClient(nil)
	_, err := Compute(context.Background(), Options{}, &Task{})
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestCompute_ForwardsToClient(t *testing.T) {
	fake := &fakeClient{result: &ComputedTask{}}
	SetClient(fake)
	t.Cleanup(func() { SetClient(nil) })

	task := &Task{Subtasks: []Subtask{{Data: []byte{1}}}}
	opts := Options{Address: "127.0.0.1", Port: 61000, Net: TestNet}
	result, err := Compute(context.Background(), opts, task)
	require.NoError(t, err)
	assert.Same(t, fake.result, result)
	assert.Same(t, task, fake.gotTask)
	assert.Equal(t, "127.0.0.1", fake.gotOpts.Address)

	// A nil observer is replaced before the client sees the options.
	assert.Equal(t, NoProgress{}, fake.gotOpts.Observer)
}

func TestCompute_Failure(t *testing.T) {
	fake := &fakeClient{err: assert.AnError}
	SetClient(fake)
	t.Cleanup(func() { SetClient(nil) })

	_, err := Compute(context.Background(), Options{}, &Task{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCompute_Timeout(t *testing.T) {
	fake := &fakeClient{result: &ComputedTask{}}
	SetClient(fake)
	t.Cleanup(func() { SetClient(nil) })

	done := make(chan struct{})
	fakeWait := &waitingClient{inner: fake, release: done}
	SetClient(fakeWait)

	_, err := Compute(context.Background(), Options{Timeout: 10 * time.Millisecond}, &Task{})
	close(done)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type waitingClient struct {
	inner   Client
	release chan struct{}
}

func (w *waitingClient) Compute(ctx context.Context, opts Options, task *Task) (*ComputedTask, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.release:
		return w.inner.Compute(ctx, opts, task)
	}
}
