package features

// ema is an exponential moving average seeded with a neutral prior.
type ema struct {
	alpha float64
	value float64
}

func newEMA(alpha, prior float64) ema {
	return ema{alpha: alpha, value: prior}
}

// observe applies ema' = ema*(1-α) + x*α.
func (e *ema) observe(x float64) {
	e.value = e.value*(1-e.alpha) + x*e.alpha
}

// window is a fixed-capacity ring buffer ordered oldest to newest.
type window struct {
	buf   []float64
	start int
	n     int
}

func newWindow(capacity int) *window {
	return &window{buf: make([]float64, capacity)}
}

func (w *window) push(x float64) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = x
		w.n++
		return
	}
	w.buf[w.start] = x
	w.start = (w.start + 1) % len(w.buf)
}

func (w *window) len() int {
	return w.n
}

// at returns the i-th oldest sample.
func (w *window) at(i int) float64 {
	return w.buf[(w.start+i)%len(w.buf)]
}
