package ns

// sampleFIFO is a fixed-capacity sample queue backed by a single slice.
// Push and Pop shift in place and never allocate.
type sampleFIFO struct {
	buf  []float64
	size int
}

func newSampleFIFO(capacity int) *sampleFIFO {
	return &sampleFIFO{buf: make([]float64, capacity)}
}

func (f *sampleFIFO) Len() int { return f.size }

// Push appends samples. The caller guarantees they fit.
func (f *sampleFIFO) Push(samples []float64) {
	copy(f.buf[f.size:], samples)
	f.size += len(samples)
}

// PushZeros appends n zero samples.
func (f *sampleFIFO) PushZeros(n int) {
	for i := 0; i < n; i++ {
		f.buf[f.size+i] = 0
	}
	f.size += n
}

// Pop removes len(dst) samples from the front into dst. The caller
// guarantees enough samples are queued.
func (f *sampleFIFO) Pop(dst []float64) {
	n := len(dst)
	copy(dst, f.buf[:n])
	copy(f.buf, f.buf[n:f.size])
	f.size -= n
}
