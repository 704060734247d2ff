package pipeline

// latencyWindow keeps the last N processing-time observations in a ring and
// exposes trailing statistics. Samples are evicted strictly FIFO.
type latencyWindow struct {
	buf  []float64
	next int
	full bool
}

// defaultLatencySamples is the trailing-window length for the displayed
// latency average.
const defaultLatencySamples = 100

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = defaultLatencySamples
	}
	return &latencyWindow{buf: make([]float64, 0, size)}
}

func (w *latencyWindow) Observe(ms float64) {
	if !w.full {
		w.buf = append(w.buf, ms)
		if len(w.buf) == cap(w.buf) {
			w.full = true
		}
		return
	}
	w.buf[w.next] = ms
	w.next = (w.next + 1) % len(w.buf)
}

// Mean returns the trailing average, or 0 with no samples.
func (w *latencyWindow) Mean() float64 {
	if len(w.buf) == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.buf {
		sum += v
	}
	return sum / float64(len(w.buf))
}

// Min returns the smallest observed sample in the window.
func (w *latencyWindow) Min() float64 {
	if len(w.buf) == 0 {
		return 0
	}
	min := w.buf[0]
	for _, v := range w.buf[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest observed sample in the window.
func (w *latencyWindow) Max() float64 {
	if len(w.buf) == 0 {
		return 0
	}
	max := w.buf[0]
	for _, v := range w.buf[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
