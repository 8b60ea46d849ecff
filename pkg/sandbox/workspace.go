package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"remotable/internal/logging"
)

// Workspace is an ephemeral directory pair used by one local dispatch. It
// is deliberately never removed: local runs leave their inputs and outputs
// behind for inspection.
type Workspace struct {
	Root      string
	InputDir  string
	OutputDir string
}

// NewWorkspace creates a uniquely named workspace with in/ and out/
// subdirectories under the system temp directory.
func NewWorkspace() (*Workspace, error) {
	root := filepath.Join(os.TempDir(), "remotable-"+uuid.NewString())
	ws := &Workspace{
		Root:      root,
		InputDir:  filepath.Join(root, "in"),
		OutputDir: filepath.Join(root, "out"),
	}
	for _, dir := range []string{ws.Root, ws.InputDir, ws.OutputDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating workspace: %w", err)
		}
	}
	logging.SandboxDebug("workspace created: %s", root)
	return ws, nil
}
