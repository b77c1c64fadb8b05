package app

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"
)

// StateShow prints recent cooldown entries.
func (a *App) StateShow(opts StateShowOptions) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}

	release := store.Acquire()
	defer release()

	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "cooldown store is empty")
		return nil
	}

	type row struct {
		sig string
		ts  time.Time
	}
	rows := make([]row, 0, len(entries))
	for sig, ts := range entries {
		rows = append(rows, row{sig: sig, ts: ts})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ts.After(rows[j].ts) })
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	now := time.Now().UTC()
	window := a.Config.State.Cooldown

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Signature\tLast Alerted (UTC)\tCooldown")

	for _, r := range rows {
		status := "expired"
		if remaining := window - now.Sub(r.ts); remaining > 0 {
			status = remaining.Truncate(time.Second).String() + " left"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", r.sig, r.ts.UTC().Format(time.RFC3339), status)
	}

	writer.Flush()
	fmt.Fprintf(os.Stdout, "\n%d of %d entries shown\n", len(rows), len(entries))
	return nil
}

// StatePrune drops cooldown entries older than window plus retention.
func (a *App) StatePrune() error {
	store, err := a.openStore()
	if err != nil {
		return err
	}

	release := store.Acquire()
	defer release()

	removed, err := store.Prune(time.Now().UTC(), a.Config.State.Cooldown, a.Config.State.Retention)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "pruned %d entries, %d remain\n", removed, store.Len())
	return nil
}
