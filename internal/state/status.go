// internal/state/status.go
package state

// StatusFeed is the bounded, newest-first feed of user-visible status lines
// (connection notices, server errors, rejected snapshots).
type StatusFeed struct {
	lines []string
	max   int

	// ChangedFn receives the full feed after every push.
	ChangedFn func(lines []string)
}

const statusFeedDepth = 5

func NewStatusFeed() *StatusFeed {
	return &StatusFeed{max: statusFeedDepth}
}

// Push prepends a line, dropping the oldest beyond the feed depth.
func (f *StatusFeed) Push(line string) {
	f.lines = append([]string{line}, f.lines...)
	if len(f.lines) > f.max {
		f.lines = f.lines[:f.max]
	}
	if f.ChangedFn != nil {
		f.ChangedFn(f.Lines())
	}
}

// Lines returns a copy of the feed, newest first.
func (f *StatusFeed) Lines() []string {
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}
