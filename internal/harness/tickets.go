package harness

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cctx "github.com/vnykmshr/cadence/pkg/common/context"
	"github.com/vnykmshr/cadence/pkg/common/validation"
)

// DefaultTickets is the stock of a ticket office.
const DefaultTickets = 100

// TicketConfig configures a TicketOffice.
type TicketConfig struct {
	Tickets int           // default 100
	Windows int           // default 2
	Guard   Guard         // default GuardNone
	Pause   time.Duration // time spent inside a sale; zero yields the processor instead
	Logger  *zap.Logger
}

// Sale is one ticket handed out by a window.
type Sale struct {
	Window string
	Ticket int
}

// TicketReport summarizes a sale run.
type TicketReport struct {
	Tickets    int
	Sales      []Sale
	Duplicates []int // ticket numbers sold more than once
	Remaining  int64
}

// Oversold returns how many more sales were made than tickets exist.
func (r TicketReport) Oversold() int {
	if n := len(r.Sales) - r.Tickets; n > 0 {
		return n
	}
	return 0
}

// Consistent reports whether every ticket was sold exactly once.
func (r TicketReport) Consistent() bool {
	return len(r.Sales) == r.Tickets && len(r.Duplicates) == 0 && r.Remaining == 0
}

// TicketOffice sells a fixed stock of tickets from several windows. The
// check-then-decrement of a sale is only safe under GuardMutex or
// GuardWrite.
type TicketOffice struct {
	cfg       TicketConfig
	section   *section
	remaining atomic.Int64

	mu    sync.Mutex
	sales []Sale
}

// NewTicketOffice creates an office with a full stock.
func NewTicketOffice(cfg TicketConfig) (*TicketOffice, error) {
	if cfg.Tickets == 0 {
		cfg.Tickets = DefaultTickets
	}
	if cfg.Windows == 0 {
		cfg.Windows = 2
	}
	if cfg.Guard == "" {
		cfg.Guard = GuardNone
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := validation.ValidatePositive("harness", "tickets", cfg.Tickets); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("harness", "windows", cfg.Windows); err != nil {
		return nil, err
	}
	if _, err := ParseGuard(string(cfg.Guard)); err != nil {
		return nil, err
	}

	o := &TicketOffice{cfg: cfg, section: newSection(cfg.Guard)}
	o.remaining.Store(int64(cfg.Tickets))
	return o, nil
}

// Remaining returns the unsold stock.
func (o *TicketOffice) Remaining() int64 {
	return o.remaining.Load()
}

// sell makes one sale attempt for window. It reports false once the stock
// looked empty.
func (o *TicketOffice) sell(ctx context.Context, window string) (bool, error) {
	sold := false
	err := o.section.write(ctx, window, func() error {
		n := o.remaining.Load()
		if n <= 0 {
			return nil
		}
		o.pause()
		ticket := o.cfg.Tickets - int(n) + 1
		o.mu.Lock()
		o.sales = append(o.sales, Sale{Window: window, Ticket: ticket})
		o.mu.Unlock()
		o.remaining.Store(n - 1)
		sold = true
		return nil
	})
	return sold, err
}

func (o *TicketOffice) pause() {
	if o.cfg.Pause > 0 {
		time.Sleep(o.cfg.Pause)
		return
	}
	runtime.Gosched()
}

// Run opens every window and sells until the stock is gone or ctx ends.
func (o *TicketOffice) Run(ctx context.Context) (TicketReport, error) {
	log := o.cfg.Logger.With(zap.String("guard", string(o.cfg.Guard)))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < o.cfg.Windows; i++ {
		window := fmt.Sprintf("window-%d", i+1)
		g.Go(func() error {
			for o.remaining.Load() > 0 {
				if cctx.IsCanceled(gctx) {
					return gctx.Err()
				}
				if _, err := o.sell(gctx, window); err != nil {
					return err
				}
				runtime.Gosched()
			}
			return nil
		})
	}

	err := g.Wait()
	report := o.report()
	log.Info("ticket sale finished",
		zap.Int("sales", len(report.Sales)),
		zap.Int("duplicates", len(report.Duplicates)),
		zap.Int("oversold", report.Oversold()),
		zap.Int64("remaining", report.Remaining),
	)
	return report, err
}

func (o *TicketOffice) report() TicketReport {
	o.mu.Lock()
	sales := append([]Sale(nil), o.sales...)
	o.mu.Unlock()

	seen := make(map[int]int, len(sales))
	for _, s := range sales {
		seen[s.Ticket]++
	}
	var dups []int
	for ticket, n := range seen {
		if n > 1 {
			dups = append(dups, ticket)
		}
	}
	sort.Ints(dups)

	return TicketReport{
		Tickets:    o.cfg.Tickets,
		Sales:      sales,
		Duplicates: dups,
		Remaining:  o.remaining.Load(),
	}
}
