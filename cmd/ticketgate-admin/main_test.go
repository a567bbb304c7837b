package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/ticketgate/internal/domain/model"
	httpx "github.com/target/ticketgate/internal/http"
)

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	out := buf.String()
	for name := range commands() {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "clear-stats-cache"), strings.Index(out, "status"))
}

func TestParseRecordQueryFlags(t *testing.T) {
	opts, err := parseRecordQueryFlags("records", []string{
		"--from", "2025-02-01", "--to", "2025-02-02", "--min-value", "39.00", "--limit", "5",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.Filter.From)
	require.NotNil(t, opts.Filter.To)
	require.NotNil(t, opts.Filter.MinValue)
	assert.Equal(t, model.Amount(3900), *opts.Filter.MinValue)
	assert.Nil(t, opts.Filter.MaxValue)
	assert.Equal(t, 5, opts.Limit)
	assert.True(t, opts.Filter.To.After(*opts.Filter.From))

	_, err = parseRecordQueryFlags("records", []string{"--min-value", "50", "--max-value", "10"})
	require.ErrorIs(t, err, model.ErrInvalidFilter)

	_, err = parseRecordQueryFlags("records", []string{"--limit", "0"})
	require.Error(t, err)
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	_, err = parseMigrateFlags([]string{"--timeout", "0s"})
	require.Error(t, err)
}

func TestResetStatements(t *testing.T) {
	stmts := resetStatements(`tg"user`)
	require.Len(t, stmts, 4)
	assert.Equal(t, `GRANT ALL ON SCHEMA public TO "tg""user"`, stmts[3])
	assert.Len(t, resetStatements("public"), 3)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	for host, want := range map[string]bool{
		"":               false,
		"localhost":      false,
		"127.0.0.1":      false,
		"::1":            false,
		"db.local":       false,
		"10.0.0.5":       true,
		"db.example.com": true,
		" LOCALHOST ":    false,
	} {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printOutcome(&buf, &model.DispatchOutcome{
		Status:           model.DispatchStatusIneligible,
		MinutesRemaining: 3.5,
	}))
	assert.Equal(t, "Not eligible: 3.50 minutes remaining\n", buf.String())

	buf.Reset()
	require.NoError(t, printOutcome(&buf, &model.DispatchOutcome{
		Status:           model.DispatchStatusIneligible,
		MinutesRemaining: 1.0 / 60,
	}))
	assert.Equal(t, "Not eligible: 0.02 minutes remaining\n", buf.String())

	buf.Reset()
	msg := "pushcut returned 502"
	require.NoError(t, printOutcome(&buf, &model.DispatchOutcome{
		Status: model.DispatchStatusDispatched,
		Record: &model.DispatchRecord{
			ID:           "rec-1",
			Value:        5790,
			DeliveryRate: 703,
			NotifyStatus: model.NotifyStatusFailed,
			NotifyError:  &msg,
		},
		NextIntervalMinutes: 9,
	}))
	out := buf.String()
	assert.Contains(t, out, "Dispatched 57.90")
	assert.Contains(t, out, "rec-1")
	assert.Contains(t, out, "pushcut returned 502")
	assert.Contains(t, out, "9 minutes")
}

func TestPrintGateStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printGateStatus(&buf, &model.GateStatus{
		Config:   model.DispatchConfig{IntervalMinutes: 5},
		Eligible: true,
	}))
	assert.Contains(t, buf.String(), "Last sent:      never")
	assert.Contains(t, buf.String(), "Eligible:       yes")

	buf.Reset()
	last := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	next := last.Add(5 * time.Minute)
	require.NoError(t, printGateStatus(&buf, &model.GateStatus{
		Config:           model.DispatchConfig{LastSentAt: &last, IntervalMinutes: 5},
		NextEligibleAt:   &next,
		MinutesRemaining: 2,
	}))
	assert.Contains(t, buf.String(), "2025-03-01T12:05:00Z")
	assert.Contains(t, buf.String(), "no (2.00 minutes remaining)")
}

func TestDispatchJSONMatchesTriggerEndpoint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, httpx.DispatchResponseBody(&model.DispatchOutcome{
		InvocationID:     "inv-1",
		Status:           model.DispatchStatusIneligible,
		MinutesRemaining: 3.5,
	})))
	var ineligible map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ineligible))
	assert.Equal(t, map[string]any{
		"message":           httpx.IneligibleMessage,
		"minutes_remaining": 3.5,
	}, ineligible)

	buf.Reset()
	require.NoError(t, printJSON(&buf, httpx.DispatchResponseBody(&model.DispatchOutcome{
		InvocationID: "inv-2",
		Status:       model.DispatchStatusDispatched,
		Record: &model.DispatchRecord{
			ID:           "rec-1",
			Value:        5790,
			DeliveryRate: 703,
			NotifyStatus: model.NotifyStatusOK,
		},
		NextIntervalMinutes: 9,
	})))
	var dispatched map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dispatched))
	assert.ElementsMatch(t,
		[]string{"success", "value", "delivery_rate", "next_interval_minutes", "notify_status", "record_id"},
		keys(dispatched))
	assert.Equal(t, true, dispatched["success"])
	assert.Equal(t, "rec-1", dispatched["record_id"])
	assert.NotContains(t, dispatched, "invocation_id")
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRenderTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderRecordTable(&buf, nil))
	assert.Equal(t, "(no records found)\n", buf.String())

	buf.Reset()
	require.NoError(t, renderDailyTable(&buf, []model.DailyTotal{
		{Day: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Revenue: 15588, Count: 2},
	}))
	assert.Contains(t, buf.String(), "2025-02-01")
	assert.Contains(t, buf.String(), "155.88")
}
