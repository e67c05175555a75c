package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/rawvec/pkg/memory"
	"github.com/grafana/rawvec/pkg/vector"
	"github.com/grafana/rawvec/pkg/vector/vectortest"
)

// addStressCommand adds the stress command to the application.
func addStressCommand(app *kingpin.Application, g *globalFlags) {
	var (
		ops          int
		opsSet       bool
		seed         uint64
		seedSet      bool
		printMetrics bool
	)

	cmd := app.Command("stress", "Run random operations against a slice model with fault injection.")
	cmd.Flag("ops", "Number of random operations to run. Overrides the config file.").IsSetByUser(&opsSet).IntVar(&ops)
	cmd.Flag("seed", "Seed of the operation generator. Overrides the config file.").IsSetByUser(&seedSet).Uint64Var(&seed)
	cmd.Flag("metrics", "Print metrics in text exposition format when done.").Default("true").BoolVar(&printMetrics)

	cmd.Action(func(_ *kingpin.ParseContext) error {
		c, err := g.load(func(dst interface{}) error {
			sc := &dst.(*Config).Stress
			if opsSet {
				sc.Ops = ops
			}
			if seedSet {
				sc.Seed = seed
			}
			return nil
		})
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		res, runErr := runStress(c.Stress, logger, newMetrics(reg))
		printStressSummary(res, runErr)
		if printMetrics {
			if err := writeMetrics(os.Stdout, reg); err != nil {
				return err
			}
		}
		return runErr
	})
}

type stressOp string

const (
	opPush       stressOp = "push"
	opPushMove   stressOp = "push_move"
	opEmplace    stressOp = "emplace"
	opPop        stressOp = "pop"
	opInsert     stressOp = "insert"
	opInsertMove stressOp = "insert_move"
	opErase      stressOp = "erase"
	opResize     stressOp = "resize"
	opReserve    stressOp = "reserve"
	opAssign     stressOp = "assign"
	opClone      stressOp = "clone"
	opTake       stressOp = "take"
)

var stressOps = []stressOp{
	opPush, opPushMove, opEmplace, opPop, opInsert, opInsertMove,
	opErase, opResize, opReserve, opAssign, opClone, opTake,
}

func (op stressOp) grows() bool {
	switch op {
	case opPush, opPushMove, opEmplace, opInsert, opInsertMove:
		return true
	}
	return false
}

type stressResult struct {
	Ops         int
	Failed      int
	OutOfMemory int
	Faults      int
	MaxLen      int
	MaxCap      int
	Usage       memory.UsageStats
}

type stressRun struct {
	cfg     StressConfig
	rng     *rand.Rand
	logger  log.Logger
	metrics *metrics

	// Every element of the run lives on this ledger, so its live count must
	// always match the length of the vector.
	ledger *vectortest.Ledger
	armed  bool

	v     *vector.Vector[vectortest.Counted]
	model []int
	res   stressResult
}

// runStress runs c.Ops random operations on a vector of counted elements and
// checks it against a slice model after every one of them. It uses
// vectortest.Default and resets it when done.
func runStress(c StressConfig, logger log.Logger, m *metrics) (res stressResult, err error) {
	r := &stressRun{
		cfg:     c,
		rng:     rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15)),
		logger:  logger,
		metrics: m,
		ledger:  vectortest.Default,
	}
	r.ledger.Reset()
	r.ledger.Fail = r.inject
	defer r.ledger.Reset()
	defer func() { r.res.Usage = memory.Usage(); res = r.res }()

	baseline := memory.Usage()
	level.Info(logger).Log("msg", "starting stress run", "ops", c.Ops, "seed", c.Seed, "fault_rate", c.FaultRate, "limit", humanize.IBytes(uint64(c.Limit)))

	r.v, err = vector.New[vectortest.Counted](0, vector.WithLimit(uint64(c.Limit)))
	if err != nil {
		return r.res, err
	}

	for i := 0; i < c.Ops; i++ {
		if err := r.step(); err != nil {
			level.Error(logger).Log("msg", "invariant violated", "op_index", i, "err", err)
			return r.res, errors.Wrapf(err, "operation %d", i)
		}
	}

	r.v.Release()
	if live := r.ledger.Live(); live != 0 {
		return r.res, errors.Errorf("%d elements were never destroyed", live)
	}
	if leaked := memory.Usage().LiveBlocks - baseline.LiveBlocks; leaked != 0 {
		return r.res, errors.Errorf("%d storage blocks were never released", leaked)
	}

	level.Info(logger).Log("msg", "stress run passed", "ops", r.res.Ops, "failed", r.res.Failed, "faults", r.res.Faults)
	return r.res, nil
}

// inject is the fault injector of the ledger. Faults are only injected while
// the operation under test runs.
func (r *stressRun) inject(op vectortest.Op) bool {
	if !r.armed || r.cfg.FaultRate == 0 || r.rng.Float64() >= r.cfg.FaultRate {
		return false
	}
	r.res.Faults++
	r.metrics.faults.WithLabelValues(op.String()).Inc()
	return true
}

func (r *stressRun) pick() stressOp {
	op := stressOps[r.rng.IntN(len(stressOps))]
	if op.grows() && len(r.model) >= r.cfg.MaxLen {
		return opErase
	}
	return op
}

func (r *stressRun) step() error {
	op := r.pick()
	capBefore := r.v.Cap()

	opErr, violation := r.apply(op)
	if violation != nil {
		return errors.Wrap(violation, string(op))
	}

	r.res.Ops++
	outcome := "ok"
	switch {
	case opErr == nil:
	case errors.Is(opErr, memory.ErrOutOfMemory):
		outcome = "oom"
		r.res.OutOfMemory++
	case errors.Is(opErr, vectortest.ErrInjected):
		outcome = "failed"
		r.res.Failed++
	default:
		return errors.Wrapf(opErr, "%s failed unexpectedly", op)
	}
	r.metrics.operations.WithLabelValues(string(op), outcome).Inc()
	level.Debug(r.logger).Log("msg", "ran operation", "op", op, "outcome", outcome, "len", r.v.Len(), "cap", r.v.Cap())

	// Resize keeps the capacity it reserved even when constructing fails.
	if opErr != nil && op != opResize && r.v.Cap() != capBefore {
		return errors.Errorf("%s: failed operation changed capacity from %d to %d", op, capBefore, r.v.Cap())
	}
	return r.check(op)
}

func (r *stressRun) check(op stressOp) error {
	if r.v.Len() > r.v.Cap() {
		return errors.Errorf("%s: length %d exceeds capacity %d", op, r.v.Len(), r.v.Cap())
	}
	if diff := cmp.Diff(r.model, values(r.v), cmpopts.EquateEmpty()); diff != "" {
		return errors.Errorf("%s: contents differ from model (-want +got):\n%s", op, diff)
	}
	if live := r.ledger.Live(); live != r.v.Len() {
		return errors.Errorf("%s: %d live elements for length %d", op, live, r.v.Len())
	}

	r.res.MaxLen = max(r.res.MaxLen, r.v.Len())
	r.res.MaxCap = max(r.res.MaxCap, r.v.Cap())
	r.metrics.checks.Inc()
	return nil
}

// withFaults runs f with fault injection enabled.
func (r *stressRun) withFaults(f func() error) error {
	r.armed = true
	defer func() { r.armed = false }()
	return f()
}

// apply runs op on the vector and updates the model when it succeeds. opErr
// is the error returned by the vector; violation reports a broken invariant.
func (r *stressRun) apply(op stressOp) (opErr, violation error) {
	switch op {
	case opPush:
		x := r.value()
		opErr = r.withFaults(func() error {
			_, err := r.v.PushBack(vectortest.Counted{Value: x})
			return err
		})
		if opErr == nil {
			r.model = append(r.model, x)
		}

	case opPushMove:
		src := vectortest.Counted{Value: r.value()}
		x := src.Value
		opErr = r.withFaults(func() error {
			_, err := r.v.PushBackMove(&src)
			return err
		})
		if opErr == nil {
			r.model = append(r.model, x)
		}

	case opEmplace:
		opErr = r.withFaults(func() error {
			_, err := r.v.EmplaceBack(nil)
			return err
		})
		if opErr == nil {
			r.model = append(r.model, 0)
		}

	case opPop:
		r.v.PopBack()
		if n := len(r.model); n > 0 {
			r.model = r.model[:n-1]
		}

	case opInsert, opInsertMove:
		pos, x := r.rng.IntN(len(r.model)+1), r.value()
		opErr = r.withFaults(func() error {
			var err error
			if op == opInsert {
				_, err = r.v.Insert(pos, vectortest.Counted{Value: x})
			} else {
				src := vectortest.Counted{Value: x}
				_, err = r.v.InsertMove(pos, &src)
			}
			return err
		})
		if opErr == nil {
			r.model = slices.Insert(r.model, pos, x)
		}

	case opErase:
		if len(r.model) == 0 {
			return nil, nil
		}
		pos := r.rng.IntN(len(r.model))
		if got := r.v.Erase(pos); got != pos {
			return nil, errors.Errorf("erase at %d returned %d", pos, got)
		}
		r.model = slices.Delete(r.model, pos, pos+1)

	case opResize:
		n := r.rng.IntN(r.cfg.MaxLen + 1)
		opErr = r.withFaults(func() error { return r.v.Resize(n) })
		if opErr == nil {
			if n < len(r.model) {
				r.model = r.model[:n]
			} else {
				r.model = append(r.model, make([]int, n-len(r.model))...)
			}
		}

	case opReserve:
		n := r.rng.IntN(2*r.cfg.MaxLen + 1)
		if r.cfg.Limit > 0 && r.rng.IntN(16) == 0 {
			// Every element takes at least a byte, so this cannot fit.
			n = int(r.cfg.Limit) + 1
		}
		opErr = r.withFaults(func() error { return r.v.Reserve(n) })

	case opAssign:
		return r.assign()

	case opClone:
		var cp *vector.Vector[vectortest.Counted]
		opErr = r.withFaults(func() error {
			var err error
			cp, err = r.v.Clone()
			return err
		})
		if opErr != nil {
			return opErr, nil
		}
		defer cp.Release()
		if diff := cmp.Diff(r.model, values(cp), cmpopts.EquateEmpty()); diff != "" {
			return nil, errors.Errorf("clone differs from source (-want +got):\n%s", diff)
		}
		if cp.Cap() != cp.Len() {
			return nil, errors.Errorf("clone has capacity %d for length %d", cp.Cap(), cp.Len())
		}

	case opTake:
		moved := r.v.Take()
		if r.v.Len() != 0 || r.v.Cap() != 0 {
			return nil, errors.Errorf("source of take has length %d and capacity %d", r.v.Len(), r.v.Cap())
		}
		r.v = moved

	default:
		return nil, errors.Errorf("unknown operation %q", op)
	}
	return opErr, nil
}

func (r *stressRun) assign() (opErr, violation error) {
	want := make([]int, r.rng.IntN(r.cfg.MaxLen+1))
	for i := range want {
		want[i] = r.value()
	}
	rhs, err := vector.New[vectortest.Counted](0)
	if err != nil {
		return nil, err
	}
	defer rhs.Release()
	for _, x := range want {
		if _, err := rhs.PushBack(vectortest.Counted{Value: x}); err != nil {
			return nil, err
		}
	}

	opErr = r.withFaults(func() error { return r.v.Assign(rhs) })
	if diff := cmp.Diff(want, values(rhs), cmpopts.EquateEmpty()); diff != "" {
		return nil, errors.Errorf("assign modified its source (-want +got):\n%s", diff)
	}
	if opErr == nil {
		r.model = want
		return nil, nil
	}

	// A failed in-place assign keeps the length but may have overwritten a
	// prefix.
	if r.v.Len() != len(r.model) {
		return nil, errors.Errorf("failed assign changed length from %d to %d", len(r.model), r.v.Len())
	}
	r.model = values(r.v)
	return opErr, nil
}

func (r *stressRun) value() int { return r.rng.IntN(1000) + 1 }

func values(v *vector.Vector[vectortest.Counted]) []int {
	out := make([]int, 0, v.Len())
	for _, c := range v.All() {
		out = append(out, c.Value)
	}
	return out
}

func printStressSummary(res stressResult, err error) {
	if err != nil {
		color.New(color.FgRed, color.Bold).Println("FAIL")
		fmt.Printf("\t%v\n", err)
	} else {
		color.New(color.FgGreen, color.Bold).Println("PASS")
	}

	bold := color.New(color.Bold)
	bold.Println("Operations:")
	fmt.Printf(
		"\ttotal: %d, failed: %d, out of memory: %d, injected faults: %d\n",
		res.Ops, res.Failed, res.OutOfMemory, res.Faults,
	)
	fmt.Printf("\tmax length: %d, max capacity: %d\n", res.MaxLen, res.MaxCap)
	bold.Println("Memory:")
	fmt.Printf(
		"\tallocations: %d, releases: %d, refused: %d, live: %s in %d blocks\n",
		res.Usage.Allocations,
		res.Usage.Releases,
		res.Usage.Failures,
		humanize.IBytes(uint64(max(res.Usage.LiveBytes, 0))),
		res.Usage.LiveBlocks,
	)
}
