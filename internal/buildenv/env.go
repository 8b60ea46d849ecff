// Package buildenv resolves the build-environment contract for the
// remotable transformer. The output directory is mandatory; the local
// toggle switches dispatcher generation from the distributed-network
// strategy to the local-sandbox strategy.
package buildenv

import (
	"fmt"
	"os"
)

const (
	// EnvOutDir names the required build-output directory variable.
	EnvOutDir = "REMOTABLE_OUT_DIR"

	// EnvLocal selects the local-sandbox dispatch strategy when present,
	// with any value.
	EnvLocal = "REMOTABLE_LOCAL"
)

// MissingEnvironmentError reports a required build-environment variable
// that is not set.
type MissingEnvironmentError struct {
	Var string
}

func (e *MissingEnvironmentError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Var)
}

// Env is the resolved build environment for one transformer run.
type Env struct {
	// OutDir is the fixed build-output directory. Kernel sources are
	// emitted under it and generated dispatchers locate compiled kernel
	// artifacts under its bin/ subdirectory.
	OutDir string

	// Local selects the local-sandbox strategy; otherwise the
	// distributed-network strategy is generated.
	Local bool
}

// Lookup reads the build-environment variables without enforcing the
// out-dir requirement. Callers that can fill OutDir from another source
// (a config file, a flag) overlay on top of it; Resolve wraps it with the
// mandatory check.
func Lookup() Env {
	outDir := os.Getenv(EnvOutDir)
	_, local := os.LookupEnv(EnvLocal)
	return Env{OutDir: outDir, Local: local}
}

// Resolve reads the build environment from the process environment.
func Resolve() (Env, error) {
	env := Lookup()
	if env.OutDir == "" {
		return Env{}, &MissingEnvironmentError{Var: EnvOutDir}
	}
	return env, nil
}
