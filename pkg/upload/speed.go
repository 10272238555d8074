package upload

import "time"

// speedSample records one chunk arrival.
type speedSample struct {
	at    time.Time
	bytes int64
}

// speedWindow estimates upload speed from a moving window of recent chunk
// arrivals. Not safe for concurrent use; callers hold the session lock.
type speedWindow struct {
	span    time.Duration
	samples []speedSample
}

func newSpeedWindow(span time.Duration) *speedWindow {
	return &speedWindow{span: span}
}

func (w *speedWindow) add(now time.Time, bytes int64) {
	w.samples = append(w.samples, speedSample{at: now, bytes: bytes})
	w.prune(now)
}

// rate returns bytes per second over the window, 0 when fewer than two
// samples remain.
func (w *speedWindow) rate(now time.Time) float64 {
	w.prune(now)
	if len(w.samples) < 2 {
		return 0
	}

	var total int64
	for _, s := range w.samples {
		total += s.bytes
	}

	elapsed := w.samples[len(w.samples)-1].at.Sub(w.samples[0].at).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(total) / elapsed
}

func (w *speedWindow) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	keep := 0
	for keep < len(w.samples) && w.samples[keep].at.Before(cutoff) {
		keep++
	}
	if keep > 0 {
		w.samples = append(w.samples[:0], w.samples[keep:]...)
	}
}
