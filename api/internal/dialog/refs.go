package dialog

import "sync/atomic"

// RefSequence issues crime reference numbers: strictly increasing,
// process-wide, never reused. The counter is atomic so two conversations
// resolving at once cannot draw the same number.
type RefSequence struct {
	next atomic.Int64
}

// NewRefSequence starts the sequence at start; the first Next returns it.
func NewRefSequence(start int64) *RefSequence {
	s := &RefSequence{}
	s.next.Store(start)
	return s
}

func (s *RefSequence) Next() int64 {
	return s.next.Add(1) - 1
}
