package compute

import (
	"context"
	"errors"
	"sync"
	"time"

	"remotable/internal/logging"
)

// ErrNoClient is returned when Compute is called before a network client
// implementation has been registered.
var ErrNoClient = errors.New("no network client registered")

// Net selects one of the two compute network deployments.
type Net string

const (
	TestNet Net = "testnet"
	MainNet Net = "mainnet"
)

// ProgressUpdate observes task progress in [0, 1].
type ProgressUpdate interface {
	Update(progress float64)
}

// NoProgress is the no-op progress observer used by generated dispatchers.
type NoProgress struct{}

func (NoProgress) Update(float64) {}

// Options configures one task submission.
type Options struct {
	Datadir  string
	Address  string
	Port     uint16
	Net      Net
	Observer ProgressUpdate

	// Timeout of zero means no timeout: the submission suspends for the
	// full task lifecycle.
	Timeout time.Duration
}

// Client submits tasks to the compute network and returns completed
// results. The protocol behind it is external to this module.
type Client interface {
	Compute(ctx context.Context, opts Options, task *Task) (*ComputedTask, error)
}

var (
	clientMu sync.RWMutex
	client   Client
)

// SetClient registers the process-wide network client implementation.
func SetClient(c Client) {
	clientMu.Lock()
	defer clientMu.Unlock()
	client = c
}

// Compute submits a task through the registered client. The observer
// defaults to NoProgress and a positive timeout bounds the whole
// lifecycle; without one the call suspends until completion or failure.
func Compute(ctx context.Context, opts Options, task *Task) (*ComputedTask, error) {
	clientMu.RLock()
	c := client
	clientMu.RUnlock()
	if c == nil {
		return nil, ErrNoClient
	}

	if opts.Observer == nil {
		opts.Observer = NoProgress{}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logging.Compute("submitting task: %d subtask(s), net=%s, rpc=%s:%d",
		len(task.Subtasks), opts.Net, opts.Address, opts.Port)
	result, err := c.Compute(ctx, opts, task)
	if err != nil {
		logging.Get(logging.CategoryCompute).Error("task failed: %v", err)
		return nil, err
	}
	logging.Compute("task completed: %d subtask result(s)", len(result.Subtasks))
	return result, nil
}
