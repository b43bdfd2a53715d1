package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
)

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format(time.DateTime)
}

func (a *App) Add(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	var notes string

	if title == "" && a.interactive {
		var err error
		if title, err = GetSimpleText(a.reader, "Title", a.out); err != nil {
			return err
		}
		if notes, err = GetMultiline(a.reader, "Notes (optional)", a.out); err != nil {
			return err
		}
	}

	rec, err := a.records.Add(ctx, title, notes)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added #%d %s\n", rec.ID, rec.Display())
	return nil
}

func (a *App) List(ctx context.Context) error {
	recs, err := a.records.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No records")
		return nil
	}
	for _, r := range recs {
		line := fmt.Sprintf("#%d %s", r.ID, r.Display())
		if !r.IsSynced {
			line += "  (" + r.Status() + ")"
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	r, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}

	remote := "-"
	if r.RemoteID != nil {
		remote = fmt.Sprint(*r.RemoteID)
	}
	fmt.Fprintf(a.out, "#%d %s\n", r.ID, r.Display())
	fmt.Fprintf(a.out, "  status:    %s\n", r.Status())
	fmt.Fprintf(a.out, "  remote id: %s\n", remote)
	fmt.Fprintf(a.out, "  created:   %s\n", formatTime(r.CreatedAt))
	fmt.Fprintf(a.out, "  updated:   %s\n", formatTime(r.UpdatedAt))
	if r.Notes != "" {
		fmt.Fprintf(a.out, "  notes:\n    %s\n", strings.ReplaceAll(r.Notes, "\n", "\n    "))
	}
	return nil
}

// Edit takes the new title from the arguments, or prompts for title and
// notes where an empty answer keeps the current value.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	var fields models.Fields
	if len(args) > 1 {
		title := strings.Join(args[1:], " ")
		fields.Title = &title
	} else {
		if !a.interactive {
			return common.NewValidationError("title", "required")
		}
		title, err := GetSimpleText(a.reader, "New title (empty keeps it)", a.out)
		if err != nil {
			return err
		}
		if title != "" {
			fields.Title = &title
		}
		notes, err := GetMultiline(a.reader, "New notes (empty keeps them)", a.out)
		if err != nil {
			return err
		}
		if notes != "" {
			fields.Notes = &notes
		}
	}

	r, err := a.records.Edit(ctx, id, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated #%d %s\n", r.ID, r.Display())
	return nil
}

func (a *App) Done(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	r, err := a.records.Toggle(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d %s\n", r.ID, r.Display())
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if err := a.records.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted #%d\n", id)
	return nil
}

// Sync asks the daemon for a pass. With no daemon answering, one pass runs
// in this process instead.
func (a *App) Sync(ctx context.Context) error {
	err := a.requestSync(ctx)
	if err == nil {
		fmt.Fprintln(a.out, "Sync requested")
		return nil
	}
	a.logger.Debug(ctx, "daemon unreachable", "error", err)

	fmt.Fprintln(a.out, "Daemon not reachable, syncing here...")
	res, err := a.local.RunPass(ctx)
	if err != nil {
		return err
	}
	if res.Count == 0 {
		fmt.Fprintln(a.out, "Nothing to sync")
		return nil
	}
	if res.Failed > 0 || res.Waiting > 0 {
		fmt.Fprintf(a.out, "%d failed (%d quarantined), %d waiting; see 'status'\n",
			res.Failed, res.Quarantined, res.Waiting)
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	s, err := a.records.Status(ctx)
	if err != nil {
		return err
	}

	mode := "unknown"
	if a.watcher != nil && a.watcher.Mode() != "" {
		mode = string(a.watcher.Mode())
	}
	fmt.Fprintf(a.out, "Connectivity: %s\n", mode)
	fmt.Fprintf(a.out, "Pending: %d  Failed permanently: %d  Unsynced records: %d\n",
		s.Pending, s.Quarantined, s.Unsynced)
	if s.LastPass != nil {
		fmt.Fprintf(a.out, "Last pass: %s, %d item(s), %d ok, %d failed\n",
			formatTime(s.LastPass.At), s.LastPass.Count, s.LastPass.Succeeded, s.LastPass.Failed)
	}
	return nil
}

func (a *App) Dead(ctx context.Context) error {
	items, err := a.records.Dead(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No failed items")
		return nil
	}
	for _, it := range items {
		task := "-"
		if id, ok := it.RecordID(); ok {
			task = fmt.Sprintf("#%d", id)
		}
		fmt.Fprintf(a.out, "%d %s %s attempts=%d error=%s\n", it.ID, it.Op, task, it.Attempts, it.LastError)
	}
	return nil
}

func (a *App) Requeue(ctx context.Context, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	n, err := a.records.Requeue(ctx, ids...)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Requeued %d item(s)\n", n)
	return nil
}

func (a *App) Remote(ctx context.Context) error {
	entries, err := a.records.Remote(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNetwork) {
			return fmt.Errorf("server unreachable: %w", err)
		}
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Server holds no entries")
		return nil
	}
	for _, e := range entries {
		box := "[ ]"
		if e.Completed {
			box = "[x]"
		}
		fmt.Fprintf(a.out, "%d %s %s\n", e.ID, box, e.Title)
	}
	return nil
}
