package model

// Sample is one (features, label) training observation.
type Sample struct {
	Features []float64
	Label    float64
}

// SampleWindow is a fixed-capacity FIFO of training samples. When full, the
// oldest sample is evicted regardless of its usefulness.
type SampleWindow struct {
	buf  []Sample
	head int // index of the oldest sample once the window has wrapped
	full bool
}

// NewSampleWindow creates a window holding at most capacity samples.
func NewSampleWindow(capacity int) *SampleWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &SampleWindow{buf: make([]Sample, 0, capacity)}
}

// Push appends a sample, evicting the oldest when the window is full.
func (w *SampleWindow) Push(s Sample) {
	if !w.full {
		w.buf = append(w.buf, s)
		if len(w.buf) == cap(w.buf) {
			w.full = true
		}
		return
	}
	w.buf[w.head] = s
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns the number of stored samples.
func (w *SampleWindow) Len() int {
	return len(w.buf)
}

// Cap returns the window capacity.
func (w *SampleWindow) Cap() int {
	return cap(w.buf)
}

// Samples returns the stored samples in arrival order. The returned slice is
// freshly allocated and safe to retain.
func (w *SampleWindow) Samples() []Sample {
	out := make([]Sample, 0, len(w.buf))
	out = append(out, w.buf[w.head:]...)
	out = append(out, w.buf[:w.head]...)
	return out
}
