package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"remotable/internal/config"
	"remotable/internal/transform"
)

var (
	outDirFlag string
	localFlag  bool
)

// genCmd transforms annotated source files.
var genCmd = &cobra.Command{
	Use:   "gen [files...]",
	Short: "Transform annotated functions into dispatchers and kernels",
	Long: `Transforms every //remotable:fn function in the given files.

For each input file, gen writes a <file>_remotable.go dispatcher file next
to it and emits one kernel program per function under the build-output
directory. The output directory comes from --out-dir, REMOTABLE_OUT_DIR or
the project config, in that order of precedence; --local or REMOTABLE_LOCAL
selects the local-sandbox strategy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGen,
}

// initCmd writes a default project config.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .remotable/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Path(workspace)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		logger.Info("config written", zap.String("path", path))
		return nil
	},
}

func init() {
	genCmd.Flags().StringVar(&outDirFlag, "out-dir", "", "build-output directory (overrides REMOTABLE_OUT_DIR)")
	genCmd.Flags().BoolVar(&localFlag, "local", false, "generate local-sandbox dispatchers (overrides REMOTABLE_LOCAL)")
}

func runGen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Path(workspace))
	if err != nil {
		return err
	}
	if outDirFlag != "" {
		cfg.Build.OutDir = outDirFlag
	}
	if localFlag {
		cfg.Build.Local = true
	}

	env, err := cfg.Env()
	if err != nil {
		return err
	}
	defaults, err := projectDefaults(cfg)
	if err != nil {
		return err
	}
	opts := transform.Options{Env: env, Defaults: defaults}
	logger.Info("transforming",
		zap.Int("files", len(args)),
		zap.String("out_dir", env.OutDir),
		zap.Bool("local", env.Local))

	g := new(errgroup.Group)
	g.SetLimit(4)
	for _, path := range args {
		g.Go(func() error {
			return genFile(path, opts)
		})
	}
	return g.Wait()
}

func genFile(path string, opts transform.Options) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	out, err := transform.File(path, src, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(out.Funcs) == 0 {
		logger.Debug("no annotated functions", zap.String("file", path))
		return nil
	}
	if !out.KernelConstrained {
		logger.Warn("input file lacks the remotable_kernel build constraint; "+
			"its functions will collide with the generated dispatchers",
			zap.String("file", path))
	}

	dest := strings.TrimSuffix(path, ".go") + "_remotable.go"
	if err := os.WriteFile(dest, out.Code, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	logger.Info("transformed",
		zap.String("file", path),
		zap.Strings("functions", out.Funcs),
		zap.String("dispatchers", dest),
		zap.Strings("kernels", out.Kernels))
	return nil
}

// projectDefaults converts config defaults into an attribute record,
// validating them the same way per-function attributes are validated.
func projectDefaults(cfg *config.Config) (*transform.Attributes, error) {
	var pairs []string
	if cfg.Defaults.Datadir != "" {
		pairs = append(pairs, fmt.Sprintf("datadir=%q", cfg.Defaults.Datadir))
	}
	if cfg.Defaults.RPCAddress != "" {
		pairs = append(pairs, fmt.Sprintf("rpc_address=%q", cfg.Defaults.RPCAddress))
	}
	if cfg.Defaults.RPCPort != 0 {
		pairs = append(pairs, fmt.Sprintf("rpc_port=%d", cfg.Defaults.RPCPort))
	}
	if cfg.Defaults.Net != "" {
		pairs = append(pairs, fmt.Sprintf("net=%q", cfg.Defaults.Net))
	}
	attrs, err := transform.ResolveAttributes(strings.Join(pairs, ", "))
	if err != nil {
		return nil, fmt.Errorf("project defaults: %w", err)
	}
	return attrs, nil
}
