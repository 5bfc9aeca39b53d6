package scheduler

import "context"

// FuncJob adapts a plain function to the Job interface
type FuncJob struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFuncJob creates a FuncJob
func NewFuncJob(name string, fn func(ctx context.Context) error) *FuncJob {
	return &FuncJob{name: name, fn: fn}
}

// Name implements Job
func (j *FuncJob) Name() string { return j.name }

// Run implements Job
func (j *FuncJob) Run(ctx context.Context) error { return j.fn(ctx) }

var _ Job = (*FuncJob)(nil)
