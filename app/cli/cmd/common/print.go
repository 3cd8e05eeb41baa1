package common

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"conflux/pkg/api"
)

const (
	progressBarWidth       = 20
	progressBarChar        = "■"
	progressBarPlaceholder = "·"
)

var (
	statusIconMap map[api.Status]string
)

func init() {
	statusIconMap = map[api.Status]string{
		api.StatusNotStarted: "◷",
		api.StatusRunning:    "●",
		api.StatusCancelled:  "ǁ",
		api.StatusCompleted:  "✔",
		api.StatusFailed:     "✖",
		api.StatusSkipped:    "○",
	}
}

// PrintOptions defines print options
type PrintOptions struct {
	// Order lists the stage ids in the order they should be printed. Stages not listed are printed last, sorted by id.
	Order []string
}

// PrintPipeline prints the pipeline state in the given writer
func PrintPipeline(w io.Writer, pipeline api.PipelineState, opts PrintOptions) {
	fmt.Fprintln(w)

	// Header
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", pipeline.Name)
	fmt.Fprintf(tw, "Pipeline:\t%s\n", pipeline.PipelineID)
	fmt.Fprintf(tw, "Run:\t%s\n", pipeline.RunID)
	fmt.Fprintf(tw, "Status:\t%s\n", pipeline.Status)
	fmt.Fprintf(tw, "Started:\t%s\n", date(pipeline.StartTime))
	fmt.Fprintf(tw, "Finished:\t%s\n", date(pipeline.EndTime))
	fmt.Fprintf(tw, "Duration:\t%s\n", duration(pipeline.StartTime, pipeline.EndTime))
	fmt.Fprintf(tw, "Records:\t%d\n", pipeline.RecordsProcessed)
	tw.Flush()
	fmt.Fprintln(w)

	stages := orderedStages(pipeline.Stages, opts.Order)
	finished := 0
	for _, id := range stages {
		if pipeline.Stages[id].Finished() {
			finished++
		}
	}

	tw.Init(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tPROGRESSION")
	fmt.Fprintf(tw, "%s %s\t%s\n", statusIconMap[pipeline.Status], pipeline.Name, progression(finished, len(stages)))
	for i, id := range stages {
		prefix := "├"
		if i == len(stages)-1 {
			prefix = "└"
		}
		fmt.Fprintf(tw, "%s %s %s\t%s\n", prefix, statusIconMap[pipeline.Stages[id]], id, pipeline.Stages[id])
	}
	tw.Flush()
}

// PrintResult prints the final result of a run in the given writer
func PrintResult(w io.Writer, res api.PipelineResult) {
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Pipeline:\t%s\n", res.PipelineID)
	fmt.Fprintf(tw, "Run:\t%s\n", res.RunID)
	fmt.Fprintf(tw, "Status:\t%s\n", res.Status)
	fmt.Fprintf(tw, "Duration:\t%s\n", duration(&res.StartTime, &res.EndTime))
	fmt.Fprintf(tw, "Records:\t%d\n", res.RecordsProcessed)
	tw.Flush()

	if len(res.StageResults) > 0 {
		fmt.Fprintln(w)
		results := make([]api.StageResult, len(res.StageResults))
		copy(results, res.StageResults)
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].StartTime.Before(results[j].StartTime)
		})
		tw.Init(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STAGE\tSTATUS\tDURATION\tRECORDS\tERROR")
		for _, sr := range results {
			fmt.Fprintf(tw, "%s %s\t%s\t%s\t%d\t%s\n", statusIconMap[sr.Status], sr.StageID, sr.Status, duration(&sr.StartTime, &sr.EndTime), sr.RecordsProcessed, strings.Join(sr.Errors, "; "))
		}
		tw.Flush()
	}

	if len(res.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors:")
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// orderedStages returns the stage ids following order, then the remaining ones sorted.
func orderedStages(stages map[string]api.Status, order []string) []string {
	ids := make([]string, 0, len(stages))
	seen := make(map[string]bool, len(stages))
	for _, id := range order {
		if _, ok := stages[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range stages {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

// progression returns a string to be printed for stage progression
func progression(finished, total int) string {
	switch {
	case total == 0:
		return ""
	case finished == total:
		return fmt.Sprintf("%d/%d", finished, total)
	}
	return fmt.Sprintf("%s %d/%d", progressBar(finished, total), finished, total)
}

func progressBar(current, total int) string {
	value := (current * progressBarWidth) / total
	buf := bytes.NewBuffer(make([]byte, 0, progressBarWidth))
	for i := 0; i < progressBarWidth; i++ {
		if i < value {
			buf.WriteString(progressBarChar)
		} else {
			buf.WriteString(progressBarPlaceholder)
		}
	}
	return buf.String()
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2 Jan 2006 15:04:05.000")
}

func duration(start, end *time.Time) string {
	var d time.Duration
	if start == nil || start.IsZero() {
		return ""
	}
	if end == nil || end.IsZero() {
		d = time.Since(*start)
	} else {
		d = end.Sub(*start)
	}

	// Print
	if d.Seconds() < 1.0 {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d.Seconds() <= 60.0 {
		return fmt.Sprintf("%0.0fs", d.Seconds())
	} else if d.Minutes() <= 60.0 {
		m := int64(d.Minutes())
		s := math.Mod(d.Seconds(), 60)
		return fmt.Sprintf("%0.dm %0.0fs", m, s)
	} else {
		h := int64(d.Hours())
		m := int64(math.Mod(d.Minutes(), 60))
		s := math.Mod(d.Seconds(), 60)
		return fmt.Sprintf("%0.dh %0.dm %0.0fs", h, m, s)
	}
}
