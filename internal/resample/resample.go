// Package resample implements the per-channel cubic-interpolation sample
// rate converter used by the renderer loop.
package resample

import "math"

// HeadroomGain and ClipLimit match the original DeltaCast resampler: a
// little headroom below unity, and clipping wide enough that transient
// overshoot from the cubic interpolator doesn't wrap instead of clamp.
const (
	HeadroomGain = 0.98
	ClipLimit    = 1.5
)

// fastPathTolerance is how close the ratio must be to 1.0 before Process
// short-circuits to a verbatim copy.
const fastPathTolerance = 1e-4

// Resampler is a causal, stateful, restartable streaming rate converter for
// one channel. The zero value is not usable; call Setup first.
type Resampler struct {
	ratio     float64
	cursor    float64
	history   [4]float32
}

// Setup (re)configures the resampler for inRate -> outRate and resets the
// fractional cursor and history. If outRate is non-positive it is treated
// as equal to inRate (unity passthrough). Setup does not reject any rate
// pair: a non-positive inRate is accepted as given and yields a
// meaningless ratio.
func (r *Resampler) Setup(inRate, outRate float64) {
	if outRate <= 0 {
		outRate = inRate
	}
	r.ratio = inRate / outRate
	r.cursor = 0
	r.history = [4]float32{}
}

// Ratio returns the configured input/output rate ratio.
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// Process consumes input[:inCount] and writes at most len(output) resampled
// samples, returning the count written.
func (r *Resampler) Process(input []float32, output []float32) int {
	inCount := len(input)
	maxOut := len(output)
	if inCount == 0 || maxOut == 0 {
		return 0
	}

	if math.Abs(r.ratio-1.0) < fastPathTolerance {
		n := inCount
		if maxOut < n {
			n = maxOut
		}
		copy(output[:n], input[:n])
		r.updateHistory(input)
		return n
	}

	generated := 0
	for generated < maxOut {
		pos := r.cursor
		index := int(math.Floor(pos))
		if index < -3 || index >= inCount {
			break
		}
		frac := float32(pos - float64(index))

		var p0, p1, p2, p3 float32

		idx0 := index - 1
		if idx0 >= 0 {
			p0 = input[idx0]
		} else {
			p0 = r.history[4+idx0]
		}

		if index >= 0 {
			p1 = input[index]
		} else {
			p1 = r.history[4+index]
		}

		idx2 := index + 1
		if idx2 >= 0 {
			if idx2 < inCount {
				p2 = input[idx2]
			} else {
				break // insufficient look-ahead data
			}
		} else {
			p2 = r.history[4+idx2]
		}

		idx3 := index + 2
		if idx3 >= 0 {
			if idx3 < inCount {
				p3 = input[idx3]
			} else {
				p3 = p2 // duplicate the last known sample
			}
		} else {
			p3 = r.history[4+idx3]
		}

		sample := cubicInterp(p0, p1, p2, p3, frac) * HeadroomGain
		if sample > ClipLimit {
			sample = ClipLimit
		} else if sample < -ClipLimit {
			sample = -ClipLimit
		}
		output[generated] = sample
		generated++

		r.cursor += r.ratio
	}

	r.cursor -= float64(inCount)
	r.updateHistory(input)

	return generated
}

// cubicInterp evaluates the Catmull-Rom-style cubic through y0..y3 at
// fractional offset t within [y1, y2].
func cubicInterp(y0, y1, y2, y3, t float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2.0*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	t2 := t * t
	return a0*t*t2 + a1*t2 + a2*t + a3
}

// updateHistory keeps the last four input samples (or shifts in fewer) so a
// subsequent Process call can look back across the block boundary.
func (r *Resampler) updateHistory(input []float32) {
	inCount := len(input)
	if inCount >= 4 {
		copy(r.history[:], input[inCount-4:])
		return
	}
	for _, s := range input {
		r.history[0] = r.history[1]
		r.history[1] = r.history[2]
		r.history[2] = r.history[3]
		r.history[3] = s
	}
}
