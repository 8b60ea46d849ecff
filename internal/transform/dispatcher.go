package transform

import (
	"fmt"
	"strings"
	"text/template"

	"remotable/internal/logging"
)

// The two dispatcher templates are deliberately separate: strategy
// selection happens once, here, and the generated code carries no run-time
// branch between backends.

var localTemplate = template.Must(template.New("local").Parse(`
func {{.Name}}({{.ParamList}}) {{.Result}} {
	result := make(chan []byte, 1)
	go func() {
		engine := sandbox.Default()
		ws, err := sandbox.NewWorkspace()
		if err != nil {
			panic(err)
		}
		if err := os.WriteFile(filepath.Join(ws.InputDir, "in"), compute.Raw({{.FirstParam}}), 0o644); err != nil {
			panic(err)
		}
		sb := sandbox.New(engine)
		sb.SetExecArgs("in", "out")
		sb.LoadInputFiles(ws.InputDir)
		sb.Run({{printf "%q" .Script}}, {{printf "%q" .Module}})
		sb.SaveOutputFiles(ws.OutputDir, "out")
		if err := sb.Err(); err != nil {
			panic(err)
		}
		out, err := os.ReadFile(filepath.Join(ws.OutputDir, "out"))
		if err != nil {
			panic(err)
		}
		result <- out
	}()
	{{if .Result}}return <-result{{else}}<-result{{end}}
}
`))

var distributedTemplate = template.Must(template.New("distributed").Parse(`
func {{.Name}}({{.ParamList}}) {{.Result}} {
	workspace, err := os.MkdirTemp("", "remotable-{{.Name}}-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(workspace)

	script, err := os.ReadFile({{printf "%q" .Script}})
	if err != nil {
		panic(err)
	}
	module, err := os.ReadFile({{printf "%q" .Module}})
	if err != nil {
		panic(err)
	}

	task, err := compute.NewTaskBuilder(workspace, compute.Binary{Script: script, Module: module}).
		{{- range .Params}}
		PushSubtaskData(compute.Raw({{.}})).
		{{- end}}
		Build()
	if err != nil {
		panic(err)
	}

	computed, err := compute.Compute(context.Background(), compute.Options{
		Datadir:  {{printf "%q" .Datadir}},
		Address:  {{printf "%q" .Address}},
		Port:     {{.Port}},
		Net:      {{.NetExpr}},
		Observer: compute.NoProgress{},
	}, task)
	if err != nil {
		panic(err)
	}

	out, err := compute.CollectOutput(computed)
	if err != nil {
		panic(err)
	}
	{{if .Result}}return out{{else}}_ = out{{end}}
}
`))

type dispatchData struct {
	Name       string
	ParamList  string
	Result     string
	FirstParam string
	Params     []string
	Script     string
	Module     string
	Datadir    string
	Address    string
	Port       uint16
	NetExpr    string
}

// renderDispatcher emits the replacement function for one plan. The
// surrounding file (package clause, imports) is assembled by the caller.
func renderDispatcher(plan *DispatchPlan) (string, error) {
	names := make([]string, len(plan.Func.Params))
	for i, p := range plan.Func.Params {
		names[i] = p.Name
	}

	data := dispatchData{
		Name:       plan.Func.Name,
		ParamList:  plan.Func.ParamList(),
		Result:     plan.Func.Result,
		FirstParam: names[0],
		Params:     names,
		Script:     plan.ScriptPath(),
		Module:     plan.ModulePath(),
		Datadir:    plan.Config.Datadir,
		Address:    plan.Config.RPCAddress,
		Port:       plan.Config.RPCPort,
		NetExpr:    netExpr(plan.Config.Net),
	}

	tmpl := distributedTemplate
	if plan.Strategy == StrategyLocal {
		tmpl = localTemplate
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s dispatcher for %s: %w", plan.Strategy, plan.Func.Name, err)
	}
	logging.GenDebug("rendered %s dispatcher for %s", plan.Strategy, plan.Func.Name)
	return buf.String(), nil
}

func netExpr(n Net) string {
	if n == NetMainnet {
		return "compute.MainNet"
	}
	return "compute.TestNet"
}

// Import sets for the assembled dispatcher file, fixed per strategy.
var (
	localImports = []string{
		`"os"`,
		`"path/filepath"`,
		``,
		`"remotable/pkg/compute"`,
		`"remotable/pkg/sandbox"`,
	}
	distributedImports = []string{
		`"context"`,
		`"os"`,
		``,
		`"remotable/pkg/compute"`,
	}
)
