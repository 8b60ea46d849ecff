package compute

import (
	"fmt"
	"io"
)

// DataStream is one named readable output of a completed subtask.
type DataStream struct {
	Name   string
	Reader io.Reader
}

// SubtaskResult is one completed subtask with its outputs in production
// order.
type SubtaskResult struct {
	Data []DataStream
}

// ComputedTask is a completed task: subtask results in submission order.
type ComputedTask struct {
	Subtasks []SubtaskResult
}

// CollectOutput concatenates every data stream of every subtask, subtask
// order first, stream order second. This concatenation is the return value
// of a distributed dispatcher.
func CollectOutput(ct *ComputedTask) ([]byte, error) {
	var out []byte
	for i, subtask := range ct.Subtasks {
		for _, stream := range subtask.Data {
			data, err := io.ReadAll(stream.Reader)
			if err != nil {
				return nil, fmt.Errorf("reading stream %q of subtask %d: %w", stream.Name, i, err)
			}
			out = append(out, data...)
		}
	}
	return out, nil
}
