package sweep

// Sample is a single range reading.
type Sample struct {
	Angle          int32 // millidegrees, 0 to 359999
	Distance       int32 // centimetres
	SignalStrength int32 // 0 to 255
}

// Scan holds the samples of one revolution in acquisition order. A Scan owns
// its samples; nothing outside it can mutate them.
type Scan struct {
	samples []Sample
}

// NewScan returns a Scan holding a copy of samples.
func NewScan(samples []Sample) Scan {
	if len(samples) == 0 {
		return Scan{}
	}
	own := make([]Sample, len(samples))
	copy(own, samples)
	return Scan{samples: own}
}

// Len returns the number of samples.
func (s Scan) Len() int {
	return len(s.samples)
}

// At returns the i-th sample. It panics if i is out of range.
func (s Scan) At(i int) Sample {
	return s.samples[i]
}

// Samples returns a copy of the samples.
func (s Scan) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}
