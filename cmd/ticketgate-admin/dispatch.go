package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"github.com/target/ticketgate/internal/bootstrap"
	"github.com/target/ticketgate/internal/domain/model"
	httpx "github.com/target/ticketgate/internal/http"
)

type outputOptions struct {
	JSON    bool
	Timeout time.Duration
}

func runDispatch(cmdCtx *commandContext, args []string) error {
	opts, err := parseOutputFlags("dispatch", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		outcome, err := svc.Dispatch.Dispatch(ctx)
		if err != nil {
			return err
		}
		if opts.JSON {
			return printJSON(cmdCtx.Out, httpx.DispatchResponseBody(outcome))
		}
		return printOutcome(cmdCtx.Out, outcome)
	})
}

func runStatus(cmdCtx *commandContext, args []string) error {
	opts, err := parseOutputFlags("status", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		status, err := svc.Dispatch.Status(ctx)
		if err != nil {
			return err
		}
		if opts.JSON {
			return printJSON(cmdCtx.Out, status)
		}
		return printGateStatus(cmdCtx.Out, status)
	})
}

func printOutcome(w io.Writer, outcome *model.DispatchOutcome) error {
	if !outcome.Dispatched() {
		return writef(w, "Not eligible: %.2f minutes remaining\n", outcome.MinutesRemaining)
	}
	rec := outcome.Record
	if err := writef(w, "Dispatched %s at %s delivery rate\n", rec.Value, rec.DeliveryRate.Percent()); err != nil {
		return err
	}
	if err := writef(w, "  record:        %s\n  notify status: %s\n", rec.ID, rec.NotifyStatus); err != nil {
		return err
	}
	if rec.NotifyError != nil {
		if err := writef(w, "  notify error:  %s\n", *rec.NotifyError); err != nil {
			return err
		}
	}
	return writef(w, "  next interval: %d minutes\n", outcome.NextIntervalMinutes)
}

func printGateStatus(w io.Writer, status *model.GateStatus) error {
	last := "never"
	if status.Config.LastSentAt != nil {
		last = formatTimestamp(*status.Config.LastSentAt)
	}
	next := "now"
	if status.NextEligibleAt != nil {
		next = formatTimestamp(*status.NextEligibleAt)
	}
	if err := writef(w, "Last sent:      %s\nInterval:       %d minutes\nNext eligible:  %s\n",
		last, status.Config.IntervalMinutes, next); err != nil {
		return err
	}
	if status.Eligible {
		return writeln(w, "Eligible:       yes")
	}
	return writef(w, "Eligible:       no (%.2f minutes remaining)\n", status.MinutesRemaining)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseOutputFlags(name string, args []string) (outputOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := outputOptions{}
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON instead of text")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")

	if err := fs.Parse(args); err != nil {
		return outputOptions{}, err
	}
	if opts.Timeout <= 0 {
		return outputOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}
