package scripting

import (
	"strings"
	"testing"

	"github.com/aldenhart/dungeon-balance-go/internal/decision"
	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
)

const berserkerScript = `
function profile() {
	log("building berserker profile");
	return {
		disposition: {
			aggressiveness: 0.95,
			cautiousness: 0.1
		},
		weights: {
			engage_or_avoid: [
				{traits: {aggressiveness: 1.0}, context: {}},
				{traits: {cautiousness: 0.2}, context: {}}
			]
		}
	};
}
`

func TestCompileProfile(t *testing.T) {
	p, err := Compile(berserkerScript)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	if p.Disposition["aggressiveness"] != 0.95 {
		t.Errorf("aggressiveness override = %v", p.Disposition["aggressiveness"])
	}
	if len(p.Weights["engage_or_avoid"]) != 2 {
		t.Errorf("weights = %v", p.Weights)
	}

	base := disposition.New(disposition.Player, 1)
	v, err := p.ApplyDisposition(base)
	if err != nil {
		t.Fatal(err)
	}
	if v.Aggressiveness != 0.95 || v.Cautiousness != 0.1 {
		t.Errorf("overrides not applied: %+v", v)
	}
	if v.Greediness != base.Greediness {
		t.Error("untouched trait changed")
	}

	table, err := p.ApplyWeights(decision.DefaultTable())
	if err != nil {
		t.Fatalf("ApplyWeights() error: %v", err)
	}
	if table == decision.DefaultTable() {
		t.Error("ApplyWeights should return a new table")
	}
}

func TestScriptLogs(t *testing.T) {
	vm := NewVM()
	if err := vm.Execute(berserkerScript); err != nil {
		t.Fatal(err)
	}
	if _, err := vm.CallProfile(); err != nil {
		t.Fatal(err)
	}

	logs := vm.Logs()
	if len(logs) != 1 || !strings.Contains(logs[0].Message, "berserker") {
		t.Errorf("Logs() = %v", logs)
	}
}

func TestProfileValidation(t *testing.T) {
	cases := []struct {
		name   string
		script string
	}{
		{"no profile function", `var x = 1;`},
		{"profile not a function", `var profile = 42;`},
		{"trait out of range", `function profile() { return {disposition: {aggressiveness: 1.5}}; }`},
		{"unknown trait", `function profile() { return {disposition: {charisma: 0.5}}; }`},
		{"coefficient out of range", `function profile() { return {weights: {flee: [{traits: {cautiousness: 2}, context: {}}]}}; }`},
		{"unknown decision kind", `function profile() { return {weights: {summon_dragon: [{traits: {}, context: {}}]}}; }`},
		{"syntax error", `function profile( {`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Compile(tc.script)
			if err == nil && p != nil {
				// Unknown kinds surface when the override is applied.
				_, err = p.ApplyWeights(decision.DefaultTable())
			}
			if err == nil {
				t.Error("invalid profile script accepted")
			}
		})
	}
}

func TestSandboxBlocksDangerousGlobals(t *testing.T) {
	script := `
function profile() {
	if (typeof eval === "function") { throw "eval is reachable"; }
	if (typeof require === "function") { throw "require is reachable"; }
	if (typeof fetch === "function") { throw "fetch is reachable"; }
	return {};
}
`
	if _, err := Compile(script); err != nil {
		t.Fatalf("sandbox check failed: %v", err)
	}
}

func TestRunawayScriptInterrupted(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the script timeout")
	}
	err := NewVM().Execute(`while (true) {}`)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("runaway script = %v, want timeout", err)
	}
}
