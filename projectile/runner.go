package projectile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/duongdatdev/miniisland-2.0-sub000/entity"
	"github.com/duongdatdev/miniisland-2.0-sub000/logging"
)

// BodySource returns the latest published roster snapshot.
type BodySource func() []entity.Body

// Runner steps every live projectile as its own cooperative task, each
// sleeping a fixed delay between steps. The number of concurrent tasks is
// bounded; launches beyond the bound are refused.
type Runner struct {
	ctx    context.Context
	group  errgroup.Group
	delay  time.Duration
	bodies BodySource
	onHit  HitFunc
	onDone func(*Projectile)
	log    *zap.Logger

	mu   sync.Mutex // serialises writers of live
	live atomic.Pointer[[]*Projectile]
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Limit  int
	Delay  time.Duration
	Bodies BodySource
	OnHit  HitFunc
	OnDone func(*Projectile) // called from the projectile's task after it stops
	Logger *zap.Logger
}

// NewRunner creates a Runner whose tasks stop when ctx is cancelled.
func NewRunner(ctx context.Context, cfg RunnerConfig) *Runner {
	r := &Runner{
		ctx:    ctx,
		delay:  cfg.Delay,
		bodies: cfg.Bodies,
		onHit:  cfg.OnHit,
		onDone: cfg.OnDone,
		log:    logging.OrNop(cfg.Logger),
	}
	if cfg.Limit > 0 {
		r.group.SetLimit(cfg.Limit)
	}
	empty := []*Projectile{}
	r.live.Store(&empty)
	return r
}

// Launch starts p's stepper. It returns false when the concurrency bound is
// reached; the projectile is then discarded.
func (r *Runner) Launch(p *Projectile) bool {
	r.add(p)
	if !r.group.TryGo(func() error {
		r.run(p)
		return nil
	}) {
		r.remove(p)
		p.Stop()
		r.log.Debug("projectile refused: runner at capacity", zap.String("owner", p.OwnerID))
		return false
	}
	return true
}

func (r *Runner) run(p *Projectile) {
	defer func() {
		r.remove(p)
		if r.onDone != nil {
			r.onDone(p)
		}
	}()

	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	for {
		var bodies []entity.Body
		if r.bodies != nil {
			bodies = r.bodies()
		}
		if !p.Step(bodies, r.onHit) {
			return
		}
		select {
		case <-r.ctx.Done():
			p.Stop()
			return
		case <-timer.C:
			timer.Reset(r.delay)
		}
	}
}

// Live returns the projectiles whose tasks are running. The slice must not
// be modified.
func (r *Runner) Live() []*Projectile {
	return *r.live.Load()
}

// StopAll flags every live projectile; their tasks exit on their next step.
func (r *Runner) StopAll() {
	for _, p := range r.Live() {
		p.Stop()
	}
}

// Wait blocks until every task has exited.
func (r *Runner) Wait() {
	_ = r.group.Wait()
}

func (r *Runner) add(p *Projectile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.live.Load()
	next := make([]*Projectile, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, p)
	r.live.Store(&next)
}

func (r *Runner) remove(p *Projectile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.live.Load()
	next := make([]*Projectile, 0, len(cur))
	for _, q := range cur {
		if q != p {
			next = append(next, q)
		}
	}
	r.live.Store(&next)
}
