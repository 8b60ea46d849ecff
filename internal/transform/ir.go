package transform

// Strategy is the execution strategy baked into a generated dispatcher. It
// is fixed at transform time from the build environment; the two strategies
// are rendered from separate, non-overlapping templates.
type Strategy int

const (
	// StrategyLocal runs the kernel in the process-wide sandbox engine.
	StrategyLocal Strategy = iota

	// StrategyDistributed submits the kernel as a task to the compute
	// network.
	StrategyDistributed
)

func (s Strategy) String() string {
	switch s {
	case StrategyLocal:
		return "local"
	case StrategyDistributed:
		return "distributed"
	default:
		return "unknown"
	}
}

// DispatchPlan is the typed intermediate representation handed to the code
// emitters: everything generation needs, nothing it must re-derive.
type DispatchPlan struct {
	Package  string
	Func     *FunctionSignature
	Config   Config
	Strategy Strategy
	OutDir   string
}

// ScriptPath is the deterministic location of the kernel's companion
// script for this plan's function.
func (p *DispatchPlan) ScriptPath() string {
	return binArtifact(p.OutDir, p.Func.Name, ".go")
}

// ModulePath is the deterministic location of the compiled portable binary
// module for this plan's function.
func (p *DispatchPlan) ModulePath() string {
	return binArtifact(p.OutDir, p.Func.Name, ".wasm")
}
