package main

import (
	"fmt"
	"io"
	"strconv"

	"stemstrip/internal/batch"
	"stemstrip/internal/preflight"
	"stemstrip/internal/services"
)

func renderRunSummary(out io.Writer, summary batch.Summary) {
	if useTables(out) {
		rows := [][]string{
			{"Processed", strconv.Itoa(summary.Processed)},
			{"Skipped", strconv.Itoa(summary.Skipped)},
			{"Failed", strconv.Itoa(summary.Failed)},
			{"Duration", summary.Duration.String()},
		}
		fmt.Fprintln(out, renderTable([]string{"Result", "Value"}, rows, 1))
	} else {
		fmt.Fprintf(out, "processed=%d skipped=%d failed=%d duration=%s\n",
			summary.Processed, summary.Skipped, summary.Failed, summary.Duration)
	}

	if len(summary.Failures) > 0 {
		renderFailures(out, summary.Failures)
	}
}

func renderFailures(out io.Writer, failures []batch.Failure) {
	if useTables(out) {
		rows := make([][]string, 0, len(failures))
		for _, failure := range failures {
			rows = append(rows, []string{failure.Item.Title, string(failure.Stage), services.Category(failure.Cause), causeText(failure.Cause)})
		}
		fmt.Fprintln(out, renderTable([]string{"Archive", "Stage", "Category", "Error"}, rows))
		return
	}
	for _, failure := range failures {
		fmt.Fprintf(out, "failed: %s stage=%s category=%s error=%s\n",
			failure.Item.Title, failure.Stage, services.Category(failure.Cause), causeText(failure.Cause))
	}
}

func renderDryRun(out io.Writer, items []batch.Item, force bool) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		action := "process"
		if !force && batch.UpToDate(item) {
			action = "skip (up to date)"
		}
		rows = append(rows, []string{item.Title, action, item.OutputPath})
	}
	if useTables(out) {
		fmt.Fprintln(out, renderTable([]string{"Archive", "Action", "Output"}, rows))
		return
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%s\t%s\t%s\n", row[0], row[1], row[2])
	}
}

func renderPreflightFailures(out io.Writer, failed []preflight.Result) {
	if useTables(out) {
		rows := make([][]string, 0, len(failed))
		for _, result := range failed {
			rows = append(rows, []string{result.Name, result.Detail})
		}
		fmt.Fprintln(out, renderTable([]string{"Check", "Detail"}, rows))
		return
	}
	for _, result := range failed {
		fmt.Fprintf(out, "preflight failed: %s (%s)\n", result.Name, result.Detail)
	}
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
