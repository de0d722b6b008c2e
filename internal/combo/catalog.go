package combo

import (
	"log/slog"

	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/mirror"
)

// Default location of the catalog in the host's tables.
const (
	DefaultTable = "static"
	DefaultKey   = "combos"
)

// Config configures a Catalog. Zero fields take defaults.
type Config struct {
	Table      string
	Key        string
	Mirror     *mirror.TableMirror // shared table mirror; created when nil
	Localizer  Localizer
	Classifier Classifier
	Logger     *slog.Logger
}

// Catalog is the replicated combo catalog.
//
// It embeds the generic entity, so Value, Loaded, Load and OnChange behave
// exactly as mirror.Entity documents. Reload additionally asks the upstream
// to republish before re-reading, because the upstream can hot-reload combo
// definitions and nothing else invalidates the published value.
type Catalog struct {
	*mirror.Entity[Snapshot]
	parser Parser
}

// NewCatalog mirrors the catalog key of host.
func NewCatalog(host mirror.Host, cfg Config) *Catalog {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Mirror == nil {
		cfg.Mirror = mirror.NewTableMirror(host, cfg.Table)
	}

	c := &Catalog{parser: Parser{Localizer: cfg.Localizer, Classifier: cfg.Classifier}}
	opts := []mirror.EntityOption{mirror.WithReloadHook(host.SendReloadRequest)}
	if cfg.Logger != nil {
		opts = append(opts, mirror.WithLogger(cfg.Logger))
	}
	c.Entity = mirror.NewEntity[Snapshot](cfg.Mirror, cfg.Key, c.normalize, opts...)
	return c
}

func (c *Catalog) normalize(raw ir.IRValue) (Snapshot, error) {
	return c.parser.Parse(raw)
}

// Combos returns the cached combos ordered by id, or nil before the first load.
func (c *Catalog) Combos() []*Combo {
	snap, ok := c.Value()
	if !ok {
		return nil
	}
	return snap.List()
}

// Lookup returns one combo by id.
func (c *Catalog) Lookup(id string) (*Combo, bool) {
	snap, ok := c.Value()
	if !ok {
		return nil, false
	}
	combo, ok := snap[id]
	return combo, ok
}
