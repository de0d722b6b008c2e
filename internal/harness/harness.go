package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/text/language"

	"github.com/roach88/combomirror/internal/combo"
	"github.com/roach88/combomirror/internal/compiler"
	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/mirror"
	"github.com/roach88/combomirror/internal/testutil"
)

// Harness holds the state of one scenario run.
type Harness struct {
	scenario *Scenario
	host     *mirror.MemoryHost
	catalog  *combo.Catalog
	view     *combo.View
	clock    *testutil.DeterministicClock
	result   *Result
	table    string
	key      string

	// lastPublish is the catalog the host republishes on reload.
	lastPublish string
	// hostErr is the first error raised while the host answered a reload.
	hostErr error
}

// Run executes a scenario against an in-memory host and returns the trace.
// A returned error means the scenario itself is broken (missing catalog
// file, bad strings); failed expectations are reported in Result.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	for i := range scenario.Steps {
		if err := h.step(i, &scenario.Steps[i]); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return h.result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	h := &Harness{
		scenario: s,
		host:     mirror.NewMemoryHost(),
		clock:    testutil.NewDeterministicClock(),
		result:   NewResult(),
		table:    s.Table,
		key:      s.Key,
	}
	if h.table == "" {
		h.table = combo.DefaultTable
	}
	if h.key == "" {
		h.key = combo.DefaultKey
	}

	loc, err := scenarioLocalizer(s)
	if err != nil {
		return nil, err
	}

	h.host.OnReload = h.answerReload
	h.catalog = combo.NewCatalog(h.host, combo.Config{
		Table:     h.table,
		Key:       h.key,
		Localizer: loc,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h.view = combo.BindView(h.catalog)
	h.catalog.OnChange(func(snap combo.Snapshot) {
		h.result.addEvent(TraceEvent{
			Type: EventChange,
			Seq:  h.clock.Next(),
			IDs:  snapshotIDs(snap),
		})
	})
	return h, nil
}

func scenarioLocalizer(s *Scenario) (combo.Localizer, error) {
	if s.Locale == "" && len(s.Strings) == 0 {
		return nil, nil
	}
	strs, err := combo.LoadStrings(s.Strings...)
	if err != nil {
		return nil, err
	}
	tag := language.English
	if s.Locale != "" {
		if tag, err = language.Parse(s.Locale); err != nil {
			return nil, fmt.Errorf("locale %q: %w", s.Locale, err)
		}
	}
	return combo.NewTextLocalizer(tag, strs)
}

func (h *Harness) step(i int, st *Step) error {
	kind, err := st.Kind()
	if err != nil {
		return err
	}

	switch kind {
	case StepPublish:
		if err := h.publish(st.Publish); err != nil {
			return err
		}
		h.lastPublish = st.Publish
	case StepRaw:
		var v any
		if err := st.Raw.Decode(&v); err != nil {
			return fmt.Errorf("raw: %w", err)
		}
		raw, err := ir.FromAny(v)
		if err != nil {
			return fmt.Errorf("raw: %w", err)
		}
		h.host.Set(h.table, h.key, raw)
	case StepDelete:
		h.host.Delete(h.table, h.key)
		h.lastPublish = ""
	case StepReload:
		h.catalog.Reload()
		if h.hostErr != nil {
			return h.hostErr
		}
	case StepFilter:
		h.view.Filter(*st.Filter)
	}

	loaded := h.catalog.Loaded()
	ids := h.view.IDs()
	h.result.addEvent(TraceEvent{
		Type:   kind,
		Seq:    h.clock.Next(),
		IDs:    ids,
		Loaded: &loaded,
	})
	h.check(i, st, ids, loaded)
	return nil
}

func (h *Harness) publish(path string) error {
	records, err := compiler.LoadCatalog(path)
	if err != nil {
		return err
	}
	h.host.Set(h.table, h.key, compiler.Encode(records))
	return nil
}

// answerReload republishes the last published catalog, recompiled from disk
// so edits between steps are picked up. After a delete there is nothing to
// republish.
func (h *Harness) answerReload() {
	if h.lastPublish == "" {
		return
	}
	if err := h.publish(h.lastPublish); err != nil && h.hostErr == nil {
		h.hostErr = fmt.Errorf("reload: %w", err)
	}
}

func (h *Harness) check(i int, st *Step, ids []string, loaded bool) {
	if st.ExpectIDs != nil && !slices.Equal(st.ExpectIDs, ids) {
		h.result.AddError(fmt.Sprintf("steps[%d]: expected ids %v, got %v", i, st.ExpectIDs, ids))
	}
	if st.ExpectLoaded != nil && *st.ExpectLoaded != loaded {
		h.result.AddError(fmt.Sprintf("steps[%d]: expected loaded=%t, got %t", i, *st.ExpectLoaded, loaded))
	}
	for id, want := range st.ExpectText {
		c, ok := h.catalog.Lookup(id)
		if !ok {
			h.result.AddError(fmt.Sprintf("steps[%d]: combo %q not in catalog", i, id))
			continue
		}
		if c.Text.Name != want {
			h.result.AddError(fmt.Sprintf("steps[%d]: combo %q: expected name %q, got %q", i, id, want, c.Text.Name))
		}
	}
}

func snapshotIDs(snap combo.Snapshot) []string {
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
