package migration

import (
	"context"
	"time"
)

// State of a migration as seen by Status.
type State string

const (
	StateApplied State = "applied"
	StatePending State = "pending"
	// StateSkipped marks a pending file whose UP section is empty; Up will
	// never record it.
	StateSkipped State = "skipped"
	// StateMissing marks a recorded migration whose file is gone.
	StateMissing State = "missing"
)

// StatusEntry is one line of the status report.
type StatusEntry struct {
	Name       string     `json:"name" yaml:"name"`
	State      State      `json:"state" yaml:"state"`
	AppliedAt  *time.Time `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// Status lists recorded migrations in apply order followed by the files that
// are not recorded, in file name order.
func (m *Migrator) Status(ctx context.Context) ([]StatusEntry, error) {
	if err := m.Store.EnsureTable(ctx, m.Conn); err != nil {
		return nil, err
	}
	files, err := m.Files.List()
	if err != nil {
		return nil, err
	}
	records, err := m.Store.Records(ctx, m.Conn)
	if err != nil {
		return nil, err
	}

	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[f.Name] = struct{}{}
	}

	entries := make([]StatusEntry, 0, len(files)+len(records))
	applied := make(map[string]struct{}, len(records))
	for _, r := range records {
		applied[r.Name] = struct{}{}
		at := r.AppliedAt
		e := StatusEntry{Name: r.Name, State: StateApplied, AppliedAt: &at, DurationMs: r.DurationMs}
		if _, ok := onDisk[r.Name]; !ok {
			e.State = StateMissing
		}
		entries = append(entries, e)
	}

	for _, f := range PendingFiles(files, applied) {
		loaded, err := m.Files.Load(f)
		if err != nil {
			return nil, err
		}
		state := StatePending
		if loaded.Up == "" {
			state = StateSkipped
		}
		entries = append(entries, StatusEntry{Name: f.Name, State: state})
	}
	return entries, nil
}
