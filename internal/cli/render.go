package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/combomirror/internal/combo"
)

// ViewResult is the JSON payload for a rendered view.
type ViewResult struct {
	Total  int            `json:"total"` // catalog size before filtering
	Count  int            `json:"count"`
	Combos []*combo.Combo `json:"combos"`
}

func newViewResult(total int, view *combo.View) ViewResult {
	entries := view.Entries()
	if entries == nil {
		entries = []*combo.Combo{}
	}
	return ViewResult{Total: total, Count: len(entries), Combos: entries}
}

// writeViewText prints one row per combo in view order.
func writeViewText(w io.Writer, res ViewResult) {
	if res.Count == 0 {
		fmt.Fprintf(w, "No combos match (%d in catalog).\n", res.Total)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLEVEL\tDIFFICULTY\tSPECIALTY\tSTANCE\tSTEPS\tNAME")
	for _, c := range res.Combos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.HeroLevel, c.DifficultyRating, c.Specialty, c.Stance, len(c.Sequence), c.Text.Name)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d combo(s)\n", res.Count, res.Total)
}
