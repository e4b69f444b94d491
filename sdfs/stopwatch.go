package sdfs

import "time"

// Stopwatch accumulates elapsed print time across pause/resume cycles (M31)
type Stopwatch struct {
	startedAt time.Time
	elapsed   time.Duration
	running   bool
}

func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.startedAt = time.Now()
	s.running = true
}

func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}
	s.elapsed += time.Since(s.startedAt)
	s.running = false
}

func (s *Stopwatch) Reset() {
	s.elapsed = 0
	s.running = false
}

// Measure is the total accumulated time, including the running span
func (s *Stopwatch) Measure() time.Duration {
	if s.running {
		return s.elapsed + time.Since(s.startedAt)
	}
	return s.elapsed
}
