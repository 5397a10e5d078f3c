package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"schedcal/internal/config"
	"schedcal/internal/domain"
	"schedcal/internal/domain/recurrence"
	"schedcal/pkg/tz"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("schedcal "+name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func runExpand(args []string, out io.Writer) error {
	fs := newFlagSet("expand")
	rule := fs.String("rrule", "", "recurrence rule, e.g. DTSTART=20180920T120000Z;UNTIL=20181221T090000;FREQ=WEEKLY;BYDAY=MO")
	minutes := fs.Int("duration", 30, "length of each occurrence in minutes")
	zone := fs.String("timezone", "", "IANA zone anchoring the local time of day")
	text := fs.Bool("text", false, "print one local range per line instead of JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := recurrence.Parse(*rule, *minutes, *zone)
	if err != nil {
		return err
	}
	occ, err := d.Expand()
	if err != nil {
		return err
	}
	spans := recurrence.ToSpans(occ, *minutes)

	if *text {
		for _, s := range spans {
			fmt.Fprintln(out, tz.FormatRange(s.Start, s.End, *zone))
		}
		return nil
	}
	return writeJSON(out, toSpanOutputs(spans, *zone))
}

func runCalendar(ctx context.Context, svc *services, args []string, out io.Writer) error {
	fs := newFlagSet("calendar")
	owner := fs.String("owner", "", "owner whose events are listed")
	start := fs.String("start", "", "window start, RFC 3339")
	end := fs.String("end", "", "window end, RFC 3339")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	lo, err := parseInstant("start", *start)
	if err != nil {
		return err
	}
	hi, err := parseInstant("end", *end)
	if err != nil {
		return err
	}
	entries, err := svc.calendar.Calendar(ctx, *owner, lo, hi)
	if err != nil {
		return err
	}
	return writeJSON(out, entries)
}

func runCreate(ctx context.Context, svc *services, cfg *config.Config, args []string, in io.Reader, out io.Writer) error {
	fs := newFlagSet("create")
	file := fs.String("file", "-", "JSON event definition, - for stdin")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var input eventInput
	if err := decodeInput(*file, in, &input); err != nil {
		return err
	}
	event, err := input.toEvent(cfg.DefaultTimezone)
	if err != nil {
		return err
	}
	if err := svc.events.CreateEvent(ctx, event); err != nil {
		return err
	}
	spans, err := svc.events.Spans(ctx, event.ID)
	if err != nil {
		return err
	}
	return writeJSON(out, toEventOutput(event, spans))
}

func runUpdate(ctx context.Context, svc *services, args []string, in io.Reader, out io.Writer) error {
	fs := newFlagSet("update")
	file := fs.String("file", "-", `JSON {"id", "owner", "event": patch}, - for stdin`)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var input updateInput
	if err := decodeInput(*file, in, &input); err != nil {
		return err
	}
	res, err := svc.events.UpdateEvent(ctx, input.ID, input.Owner, input.Event)
	if err != nil {
		return err
	}
	return writeJSON(out, updateOutput{
		ID:          res.Event.ID,
		Version:     res.Event.Version,
		Changed:     res.Changed,
		Regenerated: res.Regenerated,
		Notify:      res.Notify,
	})
}

func runShow(ctx context.Context, svc *services, args []string, out io.Writer) error {
	fs := newFlagSet("show")
	id := fs.String("id", "", "event id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	eventID, err := parseID(*id)
	if err != nil {
		return err
	}
	event, err := svc.events.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	spans, err := svc.events.Spans(ctx, eventID)
	if err != nil {
		return err
	}
	return writeJSON(out, toEventOutput(event, spans))
}

func runRemove(ctx context.Context, svc *services, args []string) error {
	fs := newFlagSet("remove")
	id := fs.String("id", "", "event id")
	owner := fs.String("owner", "", "event owner")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	eventID, err := parseID(*id)
	if err != nil {
		return err
	}
	return svc.events.RemoveEvent(ctx, eventID, *owner)
}

func runSubscribe(ctx context.Context, svc *services, args []string, out io.Writer) error {
	fs := newFlagSet("subscribe")
	id := fs.String("id", "", "event id")
	user := fs.String("user", "", "subscriber username")
	notify := fs.Bool("notify", false, "ask to be notified when the schedule moves")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	eventID, err := parseID(*id)
	if err != nil {
		return err
	}
	sub, err := svc.subs.Subscribe(ctx, eventID, *user, *notify)
	if err != nil {
		return err
	}
	return writeJSON(out, subscriptionOutput{
		EventID:   sub.EventID,
		Username:  sub.Username,
		Notify:    sub.Notify,
		CreatedAt: sub.CreatedAt,
	})
}

func runUnsubscribe(ctx context.Context, svc *services, args []string) error {
	fs := newFlagSet("unsubscribe")
	id := fs.String("id", "", "event id")
	user := fs.String("user", "", "subscriber username")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	eventID, err := parseID(*id)
	if err != nil {
		return err
	}
	return svc.subs.Unsubscribe(ctx, eventID, *user)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, domain.Validation("id_invalid", "id", s, err)
	}
	return id, nil
}

func parseInstant(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, domain.Validation("instant_invalid", field, s, err)
	}
	return t, nil
}

func decodeInput(file string, stdin io.Reader, v any) error {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Validation("input_invalid", "input", file, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
