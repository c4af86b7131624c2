package session

import "context"

// Committer persists/dispatches the finished dialogue exactly once.
type Committer interface {
	Commit(context.Context, Result) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, Result) error

func (f CommitFunc) Commit(ctx context.Context, result Result) error {
	return f(ctx, result)
}
