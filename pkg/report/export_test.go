package report

import "mercator-hq/saturn/pkg/trace"

// EstimateTraceSize exposes estimateTraceSize to the external test package.
func EstimateTraceSize(t *trace.Trace) int {
	return estimateTraceSize(t)
}

// BufferedState exposes the accumulator state to the external test package.
func (s *Scheduler) BufferedState() (traces int, perTraceSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.traces), s.perTraceSize
}
