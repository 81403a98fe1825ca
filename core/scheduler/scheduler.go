package scheduler

import (
	"fmt"
	"math"
	"sort"

	corelog "github.com/kilianp07/fleetcharge/core/logger"
	"github.com/kilianp07/fleetcharge/core/model"
)

// Scheduler books sessions for a set of demands on one configuration.
// A Scheduler holds no run state and may be shared by concurrent runs.
type Scheduler struct {
	Params  Params
	Catalog model.Catalog
	Logger  corelog.Logger
}

// New returns a Scheduler with defaults applied to p.
func New(p Params, cat model.Catalog, log corelog.Logger) (*Scheduler, error) {
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(cat) == 0 {
		cat = model.DefaultCatalog()
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{Params: p, Catalog: cat, Logger: corelog.OrNop(log)}, nil
}

// Result is the outcome of one run. Stations and Demands are private
// copies owned by the result.
type Result struct {
	Configuration model.Configuration `json:"configuration"`
	Stations      []*model.Station    `json:"stations"`
	Demands       []model.Demand      `json:"demands"`
	Timeline      *PowerTimeline      `json:"timeline"`
	CeilingKW     float64             `json:"ceiling_kw"`
	Rounds        int                 `json:"rounds"`
	// Exhausted is set when the round limit stopped the loop.
	Exhausted bool `json:"exhausted"`
}

// RequiredKWh sums the need of every demand.
func (r *Result) RequiredKWh() float64 { return model.TotalEnergy(r.Demands) }

// DeliveredKWh sums the energy booked on every station.
func (r *Result) DeliveredKWh() float64 {
	total := 0.0
	for _, st := range r.Stations {
		total += st.DeliveredKWh()
	}
	return total
}

// Coverage returns the served share of the fleet need in [0,1]. A fleet
// without need is fully covered.
func (r *Result) Coverage() float64 {
	req := r.RequiredKWh()
	if req <= 0 {
		return 1
	}
	return math.Min(1, r.DeliveredKWh()/req)
}

// SessionCount returns the number of booked sessions.
func (r *Result) SessionCount() int {
	n := 0
	for _, st := range r.Stations {
		n += len(st.Bookings)
	}
	return n
}

// Run schedules demands on the stations described by cfg. The input slice
// is not modified. An empty configuration or fleet yields an empty result.
func (s *Scheduler) Run(cfg model.Configuration, demands []model.Demand) (*Result, error) {
	log := corelog.OrNop(s.Logger)
	p := s.Params
	stations, err := model.Materialize(cfg, s.Catalog, p.ACMaxSessions, p.DCMaxSessions)
	if err != nil {
		return nil, err
	}
	ds := model.CloneDemands(demands)
	for i := range ds {
		ds[i].Reset()
	}
	installed := cfg.InstalledPowerKW(s.Catalog)
	ceiling := installed
	if p.CeilingKW > 0 && p.CeilingKW < installed {
		ceiling = p.CeilingKW
	}
	res := &Result{
		Configuration: cfg.Clone(),
		Stations:      stations,
		Demands:       ds,
		Timeline:      NewPowerTimeline(p.HorizonHours, p.BucketHours(), ceiling),
		CeilingKW:     ceiling,
	}
	if len(stations) == 0 || len(ds) == 0 {
		return res, nil
	}

	r := &run{p: p, res: res, cursor: make([]float64, len(ds))}
	for i, d := range ds {
		r.cursor[i] = d.WindowStartH
	}
	limit := p.roundLimit(len(ds))
	for res.Rounds < limit {
		res.Rounds++
		assigned, pending := r.round()
		log.Debugw("scheduling round", map[string]any{
			"configuration": cfg.Label(s.Catalog),
			"round":         res.Rounds,
			"assignments":   assigned,
			"pending":       pending,
		})
		if assigned == 0 {
			break
		}
		if res.Rounds == limit {
			res.Exhausted = true
		}
	}
	if res.Exhausted {
		log.Warnf("%s: round limit %d reached", cfg.Label(s.Catalog), limit)
	}
	log.Infof("%s: %.1f/%.1f kWh booked in %d sessions over %d rounds",
		cfg.Label(s.Catalog), res.DeliveredKWh(), res.RequiredKWh(), res.SessionCount(), res.Rounds)
	return res, nil
}

type run struct {
	p      Params
	res    *Result
	cursor []float64
}

type candidate struct {
	station *model.Station
	del     delivery
	full    bool
}

// round serves every pending demand at most once, most urgent first.
func (r *run) round() (assigned, pending int) {
	tol := r.p.FullToleranceKWh
	var order []int
	for i, d := range r.res.Demands {
		if d.EnergyRemainingKWh > tol {
			order = append(order, i)
		}
	}
	ds := r.res.Demands
	sort.SliceStable(order, func(a, b int) bool {
		da, db := ds[order[a]], ds[order[b]]
		if da.WindowEndH != db.WindowEndH {
			return da.WindowEndH < db.WindowEndH
		}
		return da.EnergyRemainingKWh > db.EnergyRemainingKWh
	})
	for _, i := range order {
		if r.assign(i) {
			assigned++
		}
		if ds[i].EnergyRemainingKWh > tol {
			pending++
		}
	}
	return assigned, pending
}

func (r *run) assign(i int) bool {
	d := &r.res.Demands[i]
	tl := r.res.Timeline
	reqStart := math.Max(d.WindowStartH, r.cursor[i])
	reqEnd := math.Min(d.WindowEndH, tl.End())
	if reqEnd-reqStart <= eps {
		return false
	}
	var best *candidate
	for _, st := range r.res.Stations {
		if !st.HasCapacity() {
			continue
		}
		slot, ok := FindSlot(st.Bookings, reqStart, reqEnd, r.p.MinSessionHours, r.p.MinGapHours)
		if !ok {
			continue
		}
		del, ok := tl.deliver(slot.StartH, slot.EndH, st.PowerKW, d.EnergyRemainingKWh)
		if !ok {
			continue
		}
		full := d.EnergyRemainingKWh-del.energyKWh < r.p.FullToleranceKWh
		if !full && del.duration() < r.p.MinSessionHours-eps {
			continue
		}
		c := &candidate{station: st, del: del, full: full}
		if best == nil || better(c, best) {
			best = c
		}
	}
	if best == nil {
		return false
	}
	energy := best.del.energyKWh
	sess := model.Session{
		StationID: best.station.ID,
		DemandID:  d.ID,
		StartH:    best.del.startH,
		EndH:      best.del.endH,
		EnergyKWh: energy,
		PeakKW:    best.del.peakKW,
	}
	best.station.Book(sess)
	d.Sessions = append(d.Sessions, sess)
	// A sub-tolerance leftover stays in the remainder: the demand is done
	// but the energy was never drawn.
	d.EnergyRemainingKWh = math.Max(0, d.EnergyRemainingKWh-energy)
	tl.apply(best.del.draws)
	r.cursor[i] = sess.EndH + r.p.MinGapHours
	return true
}

// better prefers a candidate that completes the demand, then the larger
// delivery. Earlier stations win ties.
func better(c, cur *candidate) bool {
	if c.full != cur.full {
		return c.full
	}
	if c.full {
		return false
	}
	return c.del.energyKWh > cur.del.energyKWh+eps
}

// String summarises the result for logs.
func (r *Result) String() string {
	return fmt.Sprintf("%d stations, %d sessions, coverage %.1f%%", len(r.Stations), r.SessionCount(), 100*r.Coverage())
}
