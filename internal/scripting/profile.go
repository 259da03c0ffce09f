// Package scripting loads JavaScript behavior profiles. A profile script
// runs in a sandboxed VM and defines a profile() function returning partial
// personality overrides and decision weight tweaks, so balance experiments
// can reshape agent behavior without recompiling.
package scripting

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/aldenhart/dungeon-balance-go/internal/decision"
	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
)

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// LogEntry is one log message emitted by a script via log().
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Profile is the validated result of running a behavior script: partial
// trait overrides and per-decision weight slot replacements.
type Profile struct {
	Name        string
	Disposition map[string]float64
	Weights     map[string][]decision.SlotProfile
}

// profileSpec is the raw shape exported from the VM before validation.
type profileSpec struct {
	Disposition map[string]float64 `json:"disposition"`
	Weights     map[string][]struct {
		Traits  map[string]float64 `json:"traits"`
		Context map[string]float64 `json:"context"`
	} `json:"weights"`
}

// VM wraps a goja runtime with sandbox restrictions for profile scripts.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int
}

// NewVM creates a sandboxed runtime. Scripts get Math, log(), and
// console.log; network and dynamic-code globals are blocked.
func NewVM() *VM {
	vm := &VM{
		runtime: goja.New(),
		maxLogs: 500,
	}
	vm.runtime.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	vm.injectGlobals()
	return vm
}

func (vm *VM) injectGlobals() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
		vm.logsMu.Unlock()

		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// Block dangerous globals.
	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

// Execute runs the script source, which must define profile().
func (vm *VM) Execute(source string) error {
	return vm.runWithTimeout(scriptInitTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		_, err := vm.runtime.RunString(source)
		if err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

// CallProfile invokes the script's profile() function and validates the
// returned overrides.
func (vm *VM) CallProfile() (*Profile, error) {
	var spec profileSpec
	err := vm.runWithTimeout(scriptCallTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		fn := vm.runtime.Get("profile")
		if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
			return fmt.Errorf("profile() function is not defined")
		}
		callable, ok := goja.AssertFunction(fn)
		if !ok {
			return fmt.Errorf("profile is not a function")
		}

		result, err := callable(goja.Undefined())
		if err != nil {
			return fmt.Errorf("profile() error: %w", err)
		}
		if err := vm.runtime.ExportTo(result, &spec); err != nil {
			return fmt.Errorf("profile() returned an unusable value: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return buildProfile(spec)
}

func buildProfile(spec profileSpec) (*Profile, error) {
	p := &Profile{
		Disposition: spec.Disposition,
		Weights:     make(map[string][]decision.SlotProfile, len(spec.Weights)),
	}

	for name, v := range spec.Disposition {
		if !knownTrait(name) {
			return nil, fmt.Errorf("profile trait %q is not a personality component", name)
		}
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("profile trait %q = %v outside [0,1]", name, v)
		}
	}

	for kind, slots := range spec.Weights {
		converted := make([]decision.SlotProfile, len(slots))
		for i, s := range slots {
			for n, c := range s.Traits {
				if c < -1 || c > 1 {
					return nil, fmt.Errorf("profile weight %s option %d trait %q = %v outside [-1,1]", kind, i, n, c)
				}
			}
			for n, c := range s.Context {
				if c < -1 || c > 1 {
					return nil, fmt.Errorf("profile weight %s option %d context %q = %v outside [-1,1]", kind, i, n, c)
				}
			}
			converted[i] = decision.SlotProfile{Traits: s.Traits, Context: s.Context}
		}
		p.Weights[kind] = converted
	}
	return p, nil
}

func knownTrait(name string) bool {
	switch name {
	case disposition.TraitAggressiveness, disposition.TraitGreediness,
		disposition.TraitCautiousness, disposition.TraitStrategicness,
		disposition.TraitAgreeableness, disposition.TraitExpendability,
		disposition.TraitUnpredictability, disposition.TraitInfluencability:
		return true
	}
	return false
}

// ApplyDisposition overlays the profile's trait overrides onto a base
// vector. Traits the profile leaves out keep their base values.
func (p *Profile) ApplyDisposition(base disposition.Vector) (disposition.Vector, error) {
	out := base
	for name, v := range p.Disposition {
		switch name {
		case disposition.TraitAggressiveness:
			out.Aggressiveness = v
		case disposition.TraitGreediness:
			out.Greediness = v
		case disposition.TraitCautiousness:
			out.Cautiousness = v
		case disposition.TraitStrategicness:
			out.Strategicness = v
		case disposition.TraitAgreeableness:
			out.Agreeableness = v
		case disposition.TraitExpendability:
			out.Expendability = v
		case disposition.TraitUnpredictability:
			out.Unpredictability = v
		case disposition.TraitInfluencability:
			out.Influencability = v
		}
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// ApplyWeights overlays the profile's weight tweaks onto a base table.
func (p *Profile) ApplyWeights(base *decision.Table) (*decision.Table, error) {
	out := base
	for kind, slots := range p.Weights {
		var err error
		out, err = out.Override(decision.Kind(kind), slots)
		if err != nil {
			return nil, fmt.Errorf("profile weights: %w", err)
		}
	}
	return out, nil
}

// Logs returns a copy of the script's log buffer.
func (vm *VM) Logs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

// Load reads a script file, executes it, and returns its profile.
func Load(path string) (*Profile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile script: %w", err)
	}
	return Compile(string(source))
}

// Compile executes script source and returns its profile.
func Compile(source string) (*Profile, error) {
	vm := NewVM()
	if err := vm.Execute(source); err != nil {
		return nil, err
	}
	return vm.CallProfile()
}

func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// Interrupt a runaway script execution.
		vm.runtime.Interrupt("script execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("script timed out: %w", err)
			}
			return fmt.Errorf("script timed out")
		case <-time.After(200 * time.Millisecond):
			return fmt.Errorf("script timed out")
		}
	}
}
