package harness

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cctx "github.com/vnykmshr/cadence/pkg/common/context"
	"github.com/vnykmshr/cadence/pkg/common/validation"
)

// Person is one consistent (name, sex) pair.
type Person struct {
	Name string
	Sex  string
}

// People are the two pairs the producers alternate between.
var People = [2]Person{
	{Name: "小蓝", Sex: "男"},
	{Name: "小紅", Sex: "女"},
}

// UserRecord is a two-field record whose fields are written one after the
// other. A reader that is not excluded from a writer can see a name from
// one pair and a sex from the other.
type UserRecord struct {
	name atomic.Pointer[string]
	sex  atomic.Pointer[string]
}

// NewUserRecord creates a record holding p.
func NewUserRecord(p Person) *UserRecord {
	r := &UserRecord{}
	r.name.Store(&p.Name)
	r.sex.Store(&p.Sex)
	return r
}

// Set writes the name, yields, then writes the sex.
func (r *UserRecord) Set(p Person) {
	r.name.Store(&p.Name)
	runtime.Gosched()
	r.sex.Store(&p.Sex)
}

// Get reads both fields.
func (r *UserRecord) Get() Person {
	return Person{Name: *r.name.Load(), Sex: *r.sex.Load()}
}

// Valid reports whether p is one of People.
func Valid(p Person) bool {
	return p == People[0] || p == People[1]
}

// RecordConfig configures RunRecord.
type RecordConfig struct {
	Producers int   // default 2
	Guard     Guard // default GuardNone
	// MaxReads stops the reader after this many reads. Zero reads until ctx
	// ends.
	MaxReads int
	// StopOnTorn stops the run at the first torn read.
	StopOnTorn bool
	Logger     *zap.Logger
}

// RecordReport summarizes a RunRecord.
type RecordReport struct {
	Reads  int64
	Writes int64
	Torn   int64
	// Samples holds up to five torn pairs.
	Samples []Person
}

// RunRecord has producers alternate People into one UserRecord while a
// reader checks every pair it sees. It runs until ctx ends, MaxReads is
// reached, or a torn read is seen with StopOnTorn. Ending through ctx is
// not an error.
func RunRecord(ctx context.Context, cfg RecordConfig) (RecordReport, error) {
	if cfg.Producers == 0 {
		cfg.Producers = 2
	}
	if cfg.Guard == "" {
		cfg.Guard = GuardNone
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := validation.ValidatePositive("harness", "producers", cfg.Producers); err != nil {
		return RecordReport{}, err
	}
	if _, err := ParseGuard(string(cfg.Guard)); err != nil {
		return RecordReport{}, err
	}

	rec := NewUserRecord(People[0])
	sec := newSection(cfg.Guard)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var report RecordReport
	var writes, reads, torn atomic.Int64
	samples := make(chan Person, 5)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Producers; i++ {
		owner := fmt.Sprintf("producer-%d", i+1)
		start := i % 2
		g.Go(func() error {
			for n := start; !cctx.IsCanceled(gctx); n++ {
				p := People[n%2]
				err := sec.write(gctx, owner, func() error {
					rec.Set(p)
					return nil
				})
				if err != nil {
					return err
				}
				writes.Add(1)
				runtime.Gosched()
			}
			return nil
		})
	}

	g.Go(func() error {
		defer stop()
		for !cctx.IsCanceled(gctx) {
			var p Person
			err := sec.read(gctx, "reader", func() error {
				p = rec.Get()
				return nil
			})
			if err != nil {
				return err
			}
			n := reads.Add(1)
			if !Valid(p) {
				torn.Add(1)
				select {
				case samples <- p:
				default:
				}
				if cfg.StopOnTorn {
					return nil
				}
			}
			if cfg.MaxReads > 0 && n >= int64(cfg.MaxReads) {
				return nil
			}
			runtime.Gosched()
		}
		return nil
	})

	err := g.Wait()
	if cctx.IsStop(err) {
		err = nil
	}
	close(samples)
	for p := range samples {
		report.Samples = append(report.Samples, p)
	}
	report.Reads, report.Writes, report.Torn = reads.Load(), writes.Load(), torn.Load()

	cfg.Logger.Info("record run finished",
		zap.String("guard", string(cfg.Guard)),
		zap.Int("producers", cfg.Producers),
		zap.Int64("reads", report.Reads),
		zap.Int64("writes", report.Writes),
		zap.Int64("torn", report.Torn),
	)
	return report, err
}
