package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/target/ticketgate/internal/bootstrap"
	"github.com/target/ticketgate/internal/domain/model"
	httpx "github.com/target/ticketgate/internal/http"
)

type recordQueryOptions struct {
	outputOptions
	Filter model.RecordFilter
	Limit  int
	Offset int
}

func runRecords(cmdCtx *commandContext, args []string) error {
	opts, err := parseRecordQueryFlags("records", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		recs, err := svc.Records.List(ctx, model.RecordListOptions{Filter: opts.Filter, Limit: opts.Limit, Offset: opts.Offset})
		if err != nil {
			return err
		}
		if opts.JSON {
			return printJSON(cmdCtx.Out, recs)
		}
		return renderRecordTable(cmdCtx.Out, recs)
	})
}

func runStats(cmdCtx *commandContext, args []string) error {
	opts, err := parseRecordQueryFlags("stats", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		stats, err := svc.Records.Stats(ctx, opts.Filter)
		if err != nil {
			return err
		}
		if opts.JSON {
			return printJSON(cmdCtx.Out, stats)
		}
		return writef(cmdCtx.Out, "Records:        %d\nRevenue:        %s\nAverage value:  %s\nAverage rate:   %.2f%%\n",
			stats.TotalCount, stats.TotalRevenue, stats.AverageValue, stats.AverageDeliveryRate)
	})
}

func runDaily(cmdCtx *commandContext, args []string) error {
	opts, err := parseRecordQueryFlags("daily", args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, opts.Timeout, func(ctx context.Context, svc bootstrap.ServiceContainer) error {
		days, err := svc.Records.DailyTotals(ctx, opts.Filter)
		if err != nil {
			return err
		}
		if opts.JSON {
			return printJSON(cmdCtx.Out, days)
		}
		return renderDailyTable(cmdCtx.Out, days)
	})
}

func renderRecordTable(w io.Writer, recs []*model.DispatchRecord) error {
	if len(recs) == 0 {
		return writeln(w, "(no records found)")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "SENT AT\tVALUE\tRATE\tNOTIFY\tID\n"); err != nil {
		return err
	}
	for _, r := range recs {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			formatTimestamp(r.SentAt), r.Value, r.DeliveryRate.Percent(), r.NotifyStatus, r.ID); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func renderDailyTable(w io.Writer, days []model.DailyTotal) error {
	if len(days) == 0 {
		return writeln(w, "(no records found)")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "DAY\tCOUNT\tREVENUE\n"); err != nil {
		return err
	}
	for _, d := range days {
		if err := writef(tw, "%s\t%d\t%s\n", d.Day.UTC().Format(time.DateOnly), d.Count, d.Revenue); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// parseRecordQueryFlags accepts the same filter syntax as the HTTP query parameters.
func parseRecordQueryFlags(name string, args []string) (recordQueryOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts               recordQueryOptions
		from, to, minValue, maxValue string
	)
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON instead of text")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the command")
	fs.StringVar(&from, "from", "", "Earliest sent_at (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&to, "to", "", "Latest sent_at (RFC3339 or YYYY-MM-DD, inclusive)")
	fs.StringVar(&minValue, "min-value", "", "Minimum value, e.g. 39.00")
	fs.StringVar(&maxValue, "max-value", "", "Maximum value, e.g. 97.98")
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum records to list")
	fs.IntVar(&opts.Offset, "offset", 0, "Records to skip")

	if err := fs.Parse(args); err != nil {
		return recordQueryOptions{}, err
	}
	if opts.Timeout <= 0 {
		return recordQueryOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Limit <= 0 || opts.Offset < 0 {
		return recordQueryOptions{}, errors.New("--limit must be positive and --offset non-negative")
	}

	q := url.Values{}
	for key, v := range map[string]string{"from": from, "to": to, "min_value": minValue, "max_value": maxValue} {
		if v != "" {
			q.Set(key, v)
		}
	}
	filter, err := httpx.ParseRecordFilter(q)
	if err != nil {
		return recordQueryOptions{}, fmt.Errorf("parse filter: %w", err)
	}
	opts.Filter = filter
	return opts, nil
}
