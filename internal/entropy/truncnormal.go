package entropy

// TruncNormal draws Gaussian(Mean, SD) values restricted to [Lower, Upper]
// by rejection. There is no attempt bound: parameters must keep the
// rejection probability low.
type TruncNormal struct {
	src   Source
	Mean  float64
	SD    float64
	Lower float64
	Upper float64
}

// NewTruncNormal creates a sampler drawing from src.
func NewTruncNormal(src Source, mean, sd, lower, upper float64) *TruncNormal {
	return &TruncNormal{src: src, Mean: mean, SD: sd, Lower: lower, Upper: upper}
}

// Next returns the next bounded draw.
func (t *TruncNormal) Next() float64 {
	n := t.Mean + t.src.NormFloat64()*t.SD
	for n < t.Lower || n > t.Upper {
		n = t.Mean + t.src.NormFloat64()*t.SD
	}
	return n
}
