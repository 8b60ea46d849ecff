// Package compute holds the run-time task model consumed by generated
// distributed dispatchers: tasks built from per-argument subtasks, computed
// results exposing ordered data streams, and the process-wide network
// client registration point. Task and result values live for one dispatch
// invocation only.
package compute

import "errors"

var (
	// ErrNoSubtasks is returned when a task is built without any subtask
	// data.
	ErrNoSubtasks = errors.New("task has no subtasks")

	// ErrNoModule is returned when a task is built without a portable
	// binary module.
	ErrNoModule = errors.New("task has no binary module")
)

// Binary is the kernel artifact pair shipped with a task: the companion
// script and the compiled portable binary module.
type Binary struct {
	Script []byte
	Module []byte
}

// Subtask carries the raw bytes of one original argument.
type Subtask struct {
	Data []byte
}

// Task is one full unit of distributed work: the kernel binary plus one
// subtask per original parameter, in declaration order.
type Task struct {
	Workspace string
	Binary    Binary
	Subtasks  []Subtask
}

// TaskBuilder accumulates subtasks in declaration order.
type TaskBuilder struct {
	workspace string
	binary    Binary
	subtasks  []Subtask
}

// NewTaskBuilder starts building a task rooted at the given workspace
// directory.
func NewTaskBuilder(workspace string, binary Binary) *TaskBuilder {
	return &TaskBuilder{workspace: workspace, binary: binary}
}

// PushSubtaskData appends one subtask holding the given bytes. Order of
// calls is preserved in the built task.
func (b *TaskBuilder) PushSubtaskData(data []byte) *TaskBuilder {
	b.subtasks = append(b.subtasks, Subtask{Data: data})
	return b
}

// Build finalizes the task. It fails when the task has no subtasks or no
// binary module.
func (b *TaskBuilder) Build() (*Task, error) {
	if len(b.binary.Module) == 0 {
		return nil, ErrNoModule
	}
	if len(b.subtasks) == 0 {
		return nil, ErrNoSubtasks
	}
	return &Task{
		Workspace: b.workspace,
		Binary:    b.binary,
		Subtasks:  b.subtasks,
	}, nil
}
