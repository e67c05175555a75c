package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/go-kit/log/level"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"

	"github.com/grafana/rawvec/pkg/cfg"
	"github.com/grafana/rawvec/pkg/vector"
)

// addScenarioCommand adds the scenario command to the application.
func addScenarioCommand(app *kingpin.Application, g *globalFlags) {
	var files []string

	cmd := app.Command("scenario", "Run scripted YAML scenarios against a vector of ints.")
	cmd.Arg("files", "Scenario files to run.").Required().ExistingFilesVar(&files)

	cmd.Action(func(_ *kingpin.ParseContext) error {
		if _, err := g.load(); err != nil {
			return err
		}

		failed := 0
		for _, f := range files {
			s, err := loadScenario(f)
			if err == nil {
				err = s.Run()
			}
			if err != nil {
				failed++
				level.Error(logger).Log("msg", "scenario failed", "file", f, "err", err)
				color.New(color.FgRed, color.Bold).Printf("FAIL")
				fmt.Printf("\t%s: %v\n", f, err)
				continue
			}
			color.New(color.FgGreen, color.Bold).Printf("PASS")
			fmt.Printf("\t%s: %s (%d steps)\n", f, s.Name, len(s.Steps))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(files))
		}
		return nil
	})
}

// Scenario is a scripted sequence of operations on a Vector[int].
type Scenario struct {
	Name string `yaml:"name"`
	// Limit caps the storage block of the vector; 0 means no limit.
	Limit flagext.Bytes `yaml:"limit"`
	Steps []Step        `yaml:"steps"`
}

// Step is a single operation with its expected outcome.
type Step struct {
	Op     string  `yaml:"op"`
	Pos    int     `yaml:"pos"`
	N      int     `yaml:"n"`
	Value  int     `yaml:"value"`
	Values []int   `yaml:"values"`
	Expect *Expect `yaml:"expect"`
}

// Expect describes the state after a step. Unset fields are not checked.
type Expect struct {
	Len    *int  `yaml:"len"`
	Cap    *int  `yaml:"cap"`
	MinCap *int  `yaml:"min_cap"`
	Values []int `yaml:"values"`
	// Index is the position returned by erase.
	Index *int `yaml:"index"`
	// Error is a substring of the error the step must fail with.
	Error string `yaml:"error"`
}

var scenarioOps = map[string]bool{
	"push": true, "pop": true, "insert": true, "erase": true, "reserve": true,
	"resize": true, "assign": true, "clone": true, "take": true, "release": true,
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	for i, st := range s.Steps {
		if !scenarioOps[st.Op] {
			return errors.Errorf("step %d: unknown operation %q", i+1, st.Op)
		}
	}
	return nil
}

func loadScenario(path string) (*Scenario, error) {
	var s Scenario
	if err := cfg.Unmarshal(&s, cfg.YAMLFile(path)); err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// Run executes the steps in order and stops at the first one whose outcome
// does not match its expectation.
func (s *Scenario) Run() error {
	v, err := vector.New[int](0, vector.WithLimit(uint64(s.Limit)))
	if err != nil {
		return err
	}
	defer func() { v.Release() }()

	for i, st := range s.Steps {
		var (
			index int
			opErr error
		)
		v, index, opErr = st.apply(v)
		if err := st.check(v, index, opErr); err != nil {
			return errors.Wrapf(err, "step %d (%s)", i+1, st.Op)
		}
		level.Debug(logger).Log("msg", "ran step", "scenario", s.Name, "step", i+1, "op", st.Op, "len", v.Len(), "cap", v.Cap())
	}
	return nil
}

// apply runs the step on v. It returns the vector to continue with, which
// differs from v for clone and take.
func (st Step) apply(v *vector.Vector[int]) (*vector.Vector[int], int, error) {
	switch st.Op {
	case "push":
		if st.Values == nil {
			_, err := v.PushBack(st.Value)
			return v, 0, err
		}
		for _, x := range st.Values {
			if _, err := v.PushBack(x); err != nil {
				return v, 0, err
			}
		}
		return v, 0, nil

	case "pop":
		v.PopBack()
		return v, 0, nil

	case "insert":
		p, err := v.Insert(st.Pos, st.Value)
		if err == nil && *p != st.Value {
			return v, 0, errors.Errorf("insert returned element %d, want %d", *p, st.Value)
		}
		return v, 0, err

	case "erase":
		return v, v.Erase(st.Pos), nil

	case "reserve":
		return v, 0, v.Reserve(st.N)

	case "resize":
		return v, 0, v.Resize(st.N)

	case "assign":
		rhs, err := vector.New[int](0)
		if err != nil {
			return v, 0, err
		}
		defer rhs.Release()
		for _, x := range st.Values {
			if _, err := rhs.PushBack(x); err != nil {
				return v, 0, err
			}
		}
		return v, 0, v.Assign(rhs)

	case "clone":
		cp, err := v.Clone()
		if err != nil {
			return v, 0, err
		}
		v.Release()
		return cp, 0, nil

	case "take":
		moved := v.Take()
		if v.Len() != 0 || v.Cap() != 0 {
			return moved, 0, errors.Errorf("source of take has length %d and capacity %d", v.Len(), v.Cap())
		}
		return moved, 0, nil

	case "release":
		v.Release()
		return v, 0, nil

	default:
		return v, 0, errors.Errorf("unknown operation %q", st.Op)
	}
}

func (st Step) check(v *vector.Vector[int], index int, err error) error {
	want := st.Expect
	if want == nil {
		want = &Expect{}
	}

	switch {
	case want.Error == "" && err != nil:
		return errors.Wrap(err, "unexpected error")
	case want.Error != "" && err == nil:
		return errors.Errorf("expected error containing %q", want.Error)
	case want.Error != "" && !strings.Contains(err.Error(), want.Error):
		return errors.Errorf("expected error containing %q, got %q", want.Error, err)
	}

	if v.Len() > v.Cap() {
		return errors.Errorf("length %d exceeds capacity %d", v.Len(), v.Cap())
	}
	if want.Len != nil && v.Len() != *want.Len {
		return errors.Errorf("length is %d, want %d", v.Len(), *want.Len)
	}
	if want.Cap != nil && v.Cap() != *want.Cap {
		return errors.Errorf("capacity is %d, want %d", v.Cap(), *want.Cap)
	}
	if want.MinCap != nil && v.Cap() < *want.MinCap {
		return errors.Errorf("capacity is %d, want at least %d", v.Cap(), *want.MinCap)
	}
	if want.Index != nil && index != *want.Index {
		return errors.Errorf("returned index %d, want %d", index, *want.Index)
	}
	if want.Values != nil {
		got := make([]int, 0, v.Len())
		for _, p := range v.All() {
			got = append(got, *p)
		}
		if diff := cmp.Diff(want.Values, got, cmpopts.EquateEmpty()); diff != "" {
			return errors.Errorf("contents differ (-want +got):\n%s", diff)
		}
	}
	return nil
}
