package transform

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planFor(t *testing.T, src string, strategy Strategy) *DispatchPlan {
	t.Helper()
	parsed := parseOne(t, src)
	require.Len(t, parsed.Funcs, 1)

	cfg, err := (&Attributes{}).Config()
	require.NoError(t, err)

	return &DispatchPlan{
		Package:  parsed.Package,
		Func:     parsed.Funcs[0].Sig,
		Config:   cfg,
		Strategy: strategy,
		OutDir:   "/tmp/remotable-out",
	}
}

// requireParses wraps a rendered function body in a file clause and feeds
// it back through the parser: generated code must always be valid Go.
func requireParses(t *testing.T, body string) {
	t.Helper()
	src := "package p\n" + body
	_, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, 0)
	require.NoError(t, err, "generated code does not parse:\n%s", body)
}

const threeParamSrc = `package compute

//remotable:fn
func blend(base []byte, overlay []byte, mask []byte) []byte {
	return base
}
`

func TestRenderDispatcher_Local(t *testing.T) {
	plan := planFor(t, threeParamSrc, StrategyLocal)
	body, err := renderDispatcher(plan)
	require.NoError(t, err)
	requireParses(t, body)

	assert.Contains(t, body, "func blend(base []byte, overlay []byte, mask []byte) []byte")
	assert.Contains(t, body, "sandbox.Default()")
	assert.Contains(t, body, "sandbox.NewWorkspace()")
	assert.Contains(t, body, `"/tmp/remotable-out/bin/blend.go"`)
	assert.Contains(t, body, `"/tmp/remotable-out/bin/blend.wasm"`)

	// The local strategy marshals only the first parameter.
	assert.Contains(t, body, "compute.Raw(base)")
	assert.NotContains(t, body, "compute.Raw(overlay)")
	assert.NotContains(t, body, "compute.Raw(mask)")
}

func TestRenderDispatcher_Distributed(t *testing.T) {
	plan := planFor(t, threeParamSrc, StrategyDistributed)
	body, err := renderDispatcher(plan)
	require.NoError(t, err)
	requireParses(t, body)

	// One subtask per parameter, declaration order.
	first := strings.Index(body, "PushSubtaskData(compute.Raw(base))")
	second := strings.Index(body, "PushSubtaskData(compute.Raw(overlay))")
	third := strings.Index(body, "PushSubtaskData(compute.Raw(mask))")
	require.Greater(t, first, 0)
	assert.Greater(t, second, first)
	assert.Greater(t, third, second)

	assert.Contains(t, body, "compute.Compute(context.Background()")
	assert.Contains(t, body, "compute.CollectOutput(computed)")
	assert.Contains(t, body, "Observer: compute.NoProgress{}")
	assert.Contains(t, body, "compute.TestNet")
}

func TestRenderDispatcher_ConfigBakedIn(t *testing.T) {
	plan := planFor(t, threeParamSrc, StrategyDistributed)
	plan.Config = Config{
		Datadir:    "/var/lib/node",
		RPCAddress: "192.168.1.1",
		RPCPort:    61001,
		Net:        NetMainnet,
	}

	body, err := renderDispatcher(plan)
	require.NoError(t, err)
	requireParses(t, body)
	assert.Contains(t, body, `"/var/lib/node"`)
	assert.Contains(t, body, `"192.168.1.1"`)
	assert.Contains(t, body, "61001")
	assert.Contains(t, body, "compute.MainNet")
}

func TestRenderDispatcher_NoResult(t *testing.T) {
	src := `package compute

//remotable:fn
func sink(data []byte) {
	_ = data
}
`
	for _, strategy := range []Strategy{StrategyLocal, StrategyDistributed} {
		t.Run(strategy.String(), func(t *testing.T) {
			body, err := renderDispatcher(planFor(t, src, strategy))
			require.NoError(t, err)
			requireParses(t, body)
			assert.NotContains(t, body, "return")
		})
	}
}

func TestDispatchPlanPaths(t *testing.T) {
	plan := planFor(t, threeParamSrc, StrategyLocal)
	assert.Equal(t, "/tmp/remotable-out/bin/blend.go", plan.ScriptPath())
	assert.Equal(t, "/tmp/remotable-out/bin/blend.wasm", plan.ModulePath())
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "local", StrategyLocal.String())
	assert.Equal(t, "distributed", StrategyDistributed.String())
}
