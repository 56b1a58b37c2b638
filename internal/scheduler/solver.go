package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeLimit bounds a solve when the caller does not set one.
const DefaultTimeLimit = 10 * time.Second

var progressEvery int64 = 2048

// SolveOptions tunes a single Solve call.
type SolveOptions struct {
	TimeLimit    time.Duration
	Workers      int
	AllowPartial bool
	// Progress is called from solver goroutines, never concurrently. It is advisory only.
	Progress func(Progress)
	Logger   *zap.Logger
}

func (o SolveOptions) normalize() SolveOptions {
	if o.TimeLimit <= 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Progress is a snapshot of a running search.
type Progress struct {
	Elapsed float64 `json:"elapsed"`
	Placed  int     `json:"placed"`
	Total   int     `json:"total"`
	Horizon int     `json:"horizon"`
}

// Status describes how good a returned schedule is known to be.
type Status string

const (
	StatusOptimal  Status = "optimal"
	StatusFeasible Status = "feasible"
	StatusPartial  Status = "partial"
)

// Cost is the lexicographic objective: days used first, then idle minutes.
type Cost struct {
	Days        int `json:"days"`
	IdleMinutes int `json:"idleMinutes"`
}

func (c Cost) compare(o Cost) int {
	switch {
	case c.Days != o.Days:
		if c.Days < o.Days {
			return -1
		}
		return 1
	case c.IdleMinutes != o.IdleMinutes:
		if c.IdleMinutes < o.IdleMinutes {
			return -1
		}
		return 1
	}
	return 0
}

// Result is the outcome of a successful (or partial) solve.
type Result struct {
	Status       Status                `json:"status"`
	Schedule     Schedule              `json:"schedule"`
	Cost         Cost                  `json:"cost"`
	Horizon      int                   `json:"horizon"`
	Unassignable []UnassignableSubject `json:"unassignable,omitempty"`
	Unplaced     []string              `json:"unplaced,omitempty"`
	Nodes        int64                 `json:"nodes"`
	Elapsed      time.Duration         `json:"elapsed"`
}

// Solve searches the model for a schedule that satisfies every hard constraint and minimizes the
// objective. The horizon grows one working day at a time from a counting lower bound up to the
// configured cutoff.
func Solve(ctx context.Context, m *Model, opts SolveOptions) (*Result, error) {
	if m == nil {
		return nil, &ConfigurationError{Fields: []FieldError{{Field: "model", Reason: "required"}}}
	}
	opts = opts.normalize()
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("solve cancelled: %w", err)
	}

	if len(m.vars) == 0 {
		return &Result{
			Status:       StatusOptimal,
			Schedule:     Schedule{Config: m.cfg, Items: []ScheduleItem{}},
			Unassignable: m.Unassignable(),
			Elapsed:      time.Since(started),
		}, nil
	}

	dates := m.calendar.Dates(m.cfg.Horizon())
	if report := m.countingCheck(dates); report != nil {
		opts.Logger.Debug("schedule rejected by capacity check",
			zap.String("cause", string(report.Cause)),
			zap.Int("required", report.Required),
			zap.Int("available", report.Available))
		return nil, &InfeasibleScheduleError{Report: *report}
	}

	runCtx, cancel := context.WithTimeout(ctx, opts.TimeLimit)
	defer cancel()
	stop := new(atomic.Bool)
	go func() {
		<-runCtx.Done()
		stop.Store(true)
	}()

	tracker := &progressTracker{fn: opts.Progress, started: started, limit: opts.TimeLimit, total: len(m.vars)}
	var (
		deepest partial
		nodes   int64
	)
	for h := m.minHorizon(dates); h <= len(dates); h++ {
		s := newSearch(m, dates[:h], opts.Workers, stop, tracker)
		out := s.run()
		nodes += out.nodes
		if out.deepest.assign != nil && out.deepest.depth >= deepest.depth {
			deepest = out.deepest
		}

		if out.best != nil {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("solve cancelled: %w", err)
			}
			status := StatusOptimal
			if !out.exhaustive {
				status = StatusFeasible
			}
			items := make([]ScheduleItem, 0, len(m.vars))
			for v, k := range out.best.assign {
				items = append(items, m.item(v, s.domains[v][k], s.dates))
			}
			sortItems(items)
			result := &Result{
				Status:       status,
				Schedule:     Schedule{Config: m.cfg, Items: items},
				Cost:         out.best.cost,
				Horizon:      h,
				Unassignable: m.Unassignable(),
				Nodes:        nodes,
				Elapsed:      time.Since(started),
			}
			opts.Logger.Debug("schedule solved",
				zap.String("status", string(status)),
				zap.Int("horizon", h),
				zap.Int("days", result.Cost.Days),
				zap.Int("idle_minutes", result.Cost.IdleMinutes),
				zap.Int64("nodes", nodes))
			return result, nil
		}
		if stop.Load() {
			break
		}
		if h < len(dates) {
			opts.Logger.Debug("extending horizon", zap.Int("horizon", h+1))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("solve cancelled: %w", err)
	}
	timedOut := stop.Load()
	if timedOut && opts.AllowPartial {
		partialResult := m.partialResult(deepest, dates)
		partialResult.Nodes = nodes
		partialResult.Elapsed = time.Since(started)
		return nil, &TimeoutPartialError{Result: partialResult}
	}
	report := m.diagnose(deepest, dates)
	report.TimedOut = timedOut
	opts.Logger.Debug("schedule infeasible",
		zap.String("cause", string(report.Cause)),
		zap.Bool("timed_out", timedOut),
		zap.Int64("nodes", nodes))
	return nil, &InfeasibleScheduleError{Report: report}
}

// minHorizon is the smallest number of working days that passes the capacity checks.
func (m *Model) minHorizon(dates []time.Time) int {
	for h := 1; h < len(dates); h++ {
		if m.countingCheck(dates[:h]) == nil {
			return h
		}
	}
	return len(dates)
}

func (m *Model) partialResult(p partial, dates []time.Time) *Result {
	res := &Result{
		Status:       StatusPartial,
		Schedule:     Schedule{Config: m.cfg, Items: []ScheduleItem{}},
		Horizon:      p.horizon,
		Unassignable: m.Unassignable(),
	}
	window := dates
	if p.horizon > 0 && p.horizon <= len(dates) {
		window = dates[:p.horizon]
	}
	for v := range m.vars {
		if v < p.depth {
			res.Schedule.Items = append(res.Schedule.Items, m.item(v, m.domain(v, window)[p.assign[v]], window))
			continue
		}
		res.Unplaced = append(res.Unplaced, m.subjects[m.vars[v].subject].Code)
	}
	sortItems(res.Schedule.Items)
	return res
}

type solution struct {
	cost   Cost
	branch int
	assign []int
}

type partial struct {
	depth   int
	branch  int
	horizon int
	assign  []int
}

// incumbent is the best solution shared by all workers of one horizon. Ties on cost go to the
// lower root branch, which is the one a sequential scan would have found first.
type incumbent struct {
	mu  sync.RWMutex
	sol *solution
}

func (in *incumbent) prunes(bound Cost, branch int) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.sol == nil {
		return false
	}
	c := bound.compare(in.sol.cost)
	return c > 0 || (c == 0 && in.sol.branch <= branch)
}

func (in *incumbent) offer(cost Cost, branch int, assign []int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.sol != nil {
		c := cost.compare(in.sol.cost)
		if c > 0 || (c == 0 && branch >= in.sol.branch) {
			return
		}
	}
	in.sol = &solution{cost: cost, branch: branch, assign: append([]int(nil), assign...)}
}

func (in *incumbent) snapshot() *solution {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.sol
}

type progressTracker struct {
	mu      sync.Mutex
	fn      func(Progress)
	started time.Time
	limit   time.Duration
	total   int
}

func (p *progressTracker) report(placed, horizon int) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	frac := float64(time.Since(p.started)) / float64(p.limit)
	if frac > 1 {
		frac = 1
	}
	p.fn(Progress{Elapsed: frac, Placed: placed, Total: p.total, Horizon: horizon})
}

// search explores one horizon. The dates and domains are fixed before any worker starts.
type search struct {
	m        *Model
	dates    []time.Time
	domains  [][]value
	workers  int
	stop     *atomic.Bool
	tracker  *progressTracker
	best     incumbent
	nodes    atomic.Int64
	deepMu   sync.Mutex
	deepest  partial
	deepSeen bool
}

type outcome struct {
	best       *solution
	exhaustive bool
	deepest    partial
	nodes      int64
}

func newSearch(m *Model, dates []time.Time, workers int, stop *atomic.Bool, tracker *progressTracker) *search {
	s := &search{m: m, dates: dates, workers: workers, stop: stop, tracker: tracker}
	s.domains = make([][]value, len(m.vars))
	for v := range m.vars {
		s.domains[v] = m.domain(v, dates)
	}
	return s
}

// run fans the first variable's values out to a bounded pool, one root branch per value.
func (s *search) run() outcome {
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for k := range s.domains[0] {
		if s.stop.Load() {
			break
		}
		if s.best.prunes(Cost{Days: 1}, k) {
			continue
		}
		branch := k
		g.Go(func() error {
			w := newWorker(s, branch)
			if w.place(0, branch) && !s.best.prunes(w.cost(), branch) {
				w.descend(1)
			}
			s.mergeDeepest(w.deepest)
			return nil
		})
	}
	_ = g.Wait()

	return outcome{
		best:       s.best.snapshot(),
		exhaustive: !s.stop.Load(),
		deepest:    s.deepest,
		nodes:      s.nodes.Load(),
	}
}

func (s *search) mergeDeepest(p partial) {
	if p.assign == nil {
		return
	}
	s.deepMu.Lock()
	defer s.deepMu.Unlock()
	if !s.deepSeen || p.depth > s.deepest.depth || (p.depth == s.deepest.depth && p.branch < s.deepest.branch) {
		p.horizon = len(s.dates)
		s.deepest = p
		s.deepSeen = true
	}
}

// worker owns the mutable state of one root branch. removed[u][j] holds depth+1 of the placement
// that pruned value j of variable u, or 0 while it is still alive.
type worker struct {
	s        *search
	branch   int
	assign   []int
	removed  [][]int32
	alive    []int
	dayCount []int
	daysUsed int
	semStart []int
	semEnd   []int
	undo     [][2]int
	deepest  partial
}

func newWorker(s *search, branch int) *worker {
	n := len(s.m.vars)
	w := &worker{
		s:        s,
		branch:   branch,
		assign:   make([]int, n),
		removed:  make([][]int32, n),
		alive:    make([]int, n),
		dayCount: make([]int, len(s.dates)),
		semStart: make([]int, len(s.m.semesters)),
		semEnd:   make([]int, len(s.m.semesters)),
		undo:     make([][2]int, n),
	}
	for v := range w.assign {
		w.assign[v] = -1
		w.removed[v] = make([]int32, len(s.domains[v]))
		w.alive[v] = len(s.domains[v])
	}
	for i := range w.semStart {
		w.semStart[i] = -1
		w.semEnd[i] = -1
	}
	return w
}

func (w *worker) descend(v int) {
	if w.s.stop.Load() {
		return
	}
	if v == len(w.s.domains) {
		w.s.best.offer(w.cost(), w.branch, w.assign)
		return
	}
	for k := range w.s.domains[v] {
		if w.removed[v][k] != 0 {
			continue
		}
		if w.place(v, k) && !w.s.best.prunes(w.cost(), w.branch) {
			w.descend(v + 1)
		}
		w.unplace(v, k)
		if w.s.stop.Load() {
			return
		}
	}
}

// place assigns value k to variable v and forward-checks every later variable. It returns false
// when some later variable is left without values; the caller must still unplace.
func (w *worker) place(v, k int) bool {
	s := w.s
	if n := s.nodes.Add(1); n%progressEvery == 0 {
		s.tracker.report(v, len(s.dates))
	}

	val := s.domains[v][k]
	w.assign[v] = k
	mark := int32(v + 1)
	ok := true
	for u := v + 1; u < len(s.domains) && ok; u++ {
		dom, rem := s.domains[u], w.removed[u]
		for j := range dom {
			if rem[j] == 0 && s.m.clash(v, val, u, dom[j]) != 0 {
				rem[j] = mark
				w.alive[u]--
			}
		}
		if w.alive[u] == 0 {
			ok = false
		}
	}

	w.dayCount[val.day]++
	if w.dayCount[val.day] == 1 {
		w.daysUsed++
	}
	sem := s.m.vars[v].semester
	w.undo[v] = [2]int{w.semStart[sem], w.semEnd[sem]}
	if w.semStart[sem] < 0 || val.start < w.semStart[sem] {
		w.semStart[sem] = val.start
	}
	if val.end > w.semEnd[sem] {
		w.semEnd[sem] = val.end
	}

	if depth := v + 1; w.deepest.assign == nil || depth > w.deepest.depth {
		w.deepest = partial{depth: depth, branch: w.branch, assign: append([]int(nil), w.assign[:depth]...)}
	}
	return ok
}

func (w *worker) unplace(v, k int) {
	s := w.s
	val := s.domains[v][k]
	mark := int32(v + 1)
	for u := v + 1; u < len(s.domains); u++ {
		rem := w.removed[u]
		for j := range rem {
			if rem[j] == mark {
				rem[j] = 0
				w.alive[u]++
			}
		}
	}
	w.dayCount[val.day]--
	if w.dayCount[val.day] == 0 {
		w.daysUsed--
	}
	sem := s.m.vars[v].semester
	w.semStart[sem], w.semEnd[sem] = w.undo[v][0], w.undo[v][1]
	w.assign[v] = -1
}

// cost is exact for a complete assignment and a lower bound for a partial one: days only grow,
// and a semester's span can only widen while its total exam time is fixed.
func (w *worker) cost() Cost {
	c := Cost{Days: w.daysUsed}
	for sem, start := range w.semStart {
		if start < 0 {
			continue
		}
		if idle := w.semEnd[sem] - start - w.s.m.semTotal[sem]; idle > 0 {
			c.IdleMinutes += idle
		}
	}
	return c
}
