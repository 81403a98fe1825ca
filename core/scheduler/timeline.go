package scheduler

import "math"

// PowerTimeline records the total site draw per bucket. Every sample stays
// at or below CeilingKW.
type PowerTimeline struct {
	BucketHours float64   `json:"bucket_hours"`
	CeilingKW   float64   `json:"ceiling_kw"`
	Samples     []float64 `json:"samples_kw"`
}

// NewPowerTimeline allocates enough buckets to cover horizonH.
func NewPowerTimeline(horizonH, bucketH, ceilingKW float64) *PowerTimeline {
	n := int(math.Ceil(horizonH/bucketH - eps))
	return &PowerTimeline{BucketHours: bucketH, CeilingKW: ceilingKW, Samples: make([]float64, n)}
}

// Bucket returns the index holding hour h.
func (t *PowerTimeline) Bucket(h float64) int {
	return int(math.Floor(h/t.BucketHours + eps))
}

// Headroom returns the power still available in bucket i. Buckets outside
// the horizon have none.
func (t *PowerTimeline) Headroom(i int) float64 {
	if i < 0 || i >= len(t.Samples) {
		return 0
	}
	return math.Max(0, t.CeilingKW-t.Samples[i])
}

// Peak returns the highest sample.
func (t *PowerTimeline) Peak() float64 {
	peak := 0.0
	for _, v := range t.Samples {
		peak = math.Max(peak, v)
	}
	return peak
}

// End returns the hour at which the horizon closes.
func (t *PowerTimeline) End() float64 { return float64(len(t.Samples)) * t.BucketHours }

type draw struct {
	bucket int
	kw     float64
}

// delivery is a simulated session before it is committed.
type delivery struct {
	startH, endH float64
	energyKWh    float64
	peakKW       float64
	draws        []draw
}

func (d delivery) duration() float64 { return d.endH - d.startH }

// deliver simulates charging at up to ratedKW from startH until need is met
// or endH is reached. In each bucket the rate is limited by the remaining
// headroom. Buckets without headroom before the first energy flows push the
// session start back; one after it closes the session. Each touched bucket
// is charged the full rate so concurrent sessions never overshoot the
// ceiling.
func (t *PowerTimeline) deliver(startH, endH, ratedKW, need float64) (delivery, bool) {
	var d delivery
	if need <= 0 || ratedKW <= 0 || endH-startH <= eps {
		return d, false
	}
	started := false
	h := startH
	for h < endH-eps {
		b := t.Bucket(h)
		segEnd := math.Min(float64(b+1)*t.BucketHours, endH)
		if segEnd-h <= eps {
			h = float64(b+1) * t.BucketHours
			continue
		}
		kw := math.Min(ratedKW, t.Headroom(b))
		if kw <= eps {
			if started {
				break
			}
			if b >= len(t.Samples) {
				break
			}
			h = segEnd
			continue
		}
		if !started {
			started = true
			d.startH = h
		}
		e := kw * (segEnd - h)
		if d.energyKWh+e >= need-eps {
			segEnd = h + (need-d.energyKWh)/kw
			e = need - d.energyKWh
		}
		d.energyKWh += e
		d.peakKW = math.Max(d.peakKW, kw)
		d.draws = append(d.draws, draw{bucket: b, kw: kw})
		h = segEnd
		d.endH = segEnd
		if d.energyKWh >= need-eps {
			d.energyKWh = need
			break
		}
	}
	return d, started && d.energyKWh > eps
}

func (t *PowerTimeline) apply(draws []draw) {
	for _, dr := range draws {
		t.Samples[dr.bucket] += dr.kw
	}
}
