package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/combomirror/internal/ir"
)

// LoadCatalog loads combo definitions from a .cue file or a directory
// holding one CUE package, and compiles them.
func LoadCatalog(path string) (ir.IRArray, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog source: %w", err)
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	if !info.IsDir() {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fromCUE(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fromCUE(err)
	}
	return CompileCatalog(value)
}
