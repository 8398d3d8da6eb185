package batch

import "time"

// Report describes one submitted batch: either the backend rejected it as a
// whole (Err set) or it carries one Result per item.
type Report struct {
	Execution int64
	Index     string
	Items     int
	Bytes     int
	Results   []Result
	Err       error
	Duration  time.Duration
}

// Failed returns the number of items that were not stored.
func (r Report) Failed() int {
	if r.Err != nil {
		return r.Items
	}
	n := 0
	for _, res := range r.Results {
		if res.Status() == StatusError {
			n++
		}
	}
	return n
}

// Succeeded returns the number of stored items.
func (r Report) Succeeded() int { return r.Items - r.Failed() }

// OK reports whether every item was stored.
func (r Report) OK() bool { return r.Failed() == 0 }

// FirstError returns the batch error or the first item error.
func (r Report) FirstError() error {
	if r.Err != nil {
		return r.Err
	}
	for _, res := range r.Results {
		if res.Err() != nil {
			return res.Err()
		}
	}
	return nil
}
