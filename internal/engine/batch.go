package engine

import (
	"errors"
	"fmt"
)

// Pair renames every occurrence of Old to New.
type Pair struct {
	Old string
	New string
}

func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.Old, p.New)
}

// Batch is the ordered set of pairs applied by one run.
type Batch []Pair

var (
	ErrEmptyBatch    = errors.New("rename batch is empty")
	ErrEmptyValue    = errors.New("old and new values must be non-empty")
	ErrDuplicateOld  = errors.New("old value renamed more than once")
	ErrChainedRename = errors.New("new value is renamed by another entry")
)

// Validate checks the batch invariants: at least one pair, no empty values,
// no old value listed twice and no new value that is another pair's old
// value. Pairs are applied one after another, so a chain or swap would
// depend on their order. Old == New is allowed; such a pair fails
// validation later because its new value is already present.
func (b Batch) Validate() error {
	if len(b) == 0 {
		return &InputError{Err: ErrEmptyBatch}
	}
	seen := make(map[string]int, len(b))
	for i, p := range b {
		where := fmt.Sprintf("entry %d", i+1)
		if p.Old == "" || p.New == "" {
			return &InputError{Where: where, Err: ErrEmptyValue}
		}
		if first, ok := seen[p.Old]; ok {
			return &InputError{Where: where, Err: fmt.Errorf("%w: %q (first at entry %d)", ErrDuplicateOld, p.Old, first)}
		}
		seen[p.Old] = i + 1
	}
	for i, p := range b {
		if j, ok := seen[p.New]; ok && j != i+1 {
			return &InputError{
				Where: fmt.Sprintf("entry %d", i+1),
				Err:   fmt.Errorf("%w: %q (renamed at entry %d)", ErrChainedRename, p.New, j),
			}
		}
	}
	return nil
}

// OldValues returns the old side of every pair, in batch order.
func (b Batch) OldValues() []string {
	out := make([]string, len(b))
	for i, p := range b {
		out[i] = p.Old
	}
	return out
}

// NewValues returns the distinct new values, in first-seen order.
func (b Batch) NewValues() []string {
	seen := make(map[string]bool, len(b))
	out := make([]string, 0, len(b))
	for _, p := range b {
		if !seen[p.New] {
			seen[p.New] = true
			out = append(out, p.New)
		}
	}
	return out
}

// chunks splits b into consecutive slices of at most size pairs.
func (b Batch) chunks(size int) []Batch {
	if size <= 0 {
		size = len(b)
	}
	var out []Batch
	for start := 0; start < len(b); start += size {
		end := start + size
		if end > len(b) {
			end = len(b)
		}
		out = append(out, b[start:end])
	}
	return out
}
