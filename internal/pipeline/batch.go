// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/meshintel/geopublish/pkg/types"
)

// timeRounding keeps per-job durations readable in batch output.
const timeRounding = time.Millisecond

// BatchResult summarizes a batch run over a job list.
type BatchResult struct {
	Succeeded int
	Failed    int

	// Outcomes holds one entry per job, in input order.
	Outcomes []Outcome
}

// Total returns the number of jobs processed.
func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed
}

// HasFailures reports whether any job failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// RunBatch runs every job in order, writing progress to w. A failed job is
// counted and reported but never stops the batch; the remaining jobs still
// run.
func (p *Pipeline) RunBatch(ctx context.Context, jobs []types.Job, w io.Writer) BatchResult {
	result := BatchResult{Outcomes: make([]Outcome, 0, len(jobs))}

	for i, job := range jobs {
		fmt.Fprintf(w, "[%d/%d] %s (%s)\n", i+1, len(jobs), job.DisplayName, job.Mode)

		out := p.Run(ctx, job)
		result.Outcomes = append(result.Outcomes, out)

		if out.Failed() {
			result.Failed++
			fmt.Fprintf(w, "  FAILED: %v\n", out.Err)
			continue
		}

		result.Succeeded++
		elapsed := out.Finished.Sub(out.Started).Round(timeRounding)
		if n := types.CountFailed(out.Results); n > 0 {
			fmt.Fprintf(w, "  ok: %d artifacts, %d format error(s) in %s\n", countArtifacts(out.Results), n, elapsed)
		} else {
			fmt.Fprintf(w, "  ok: %d artifacts in %s\n", countArtifacts(out.Results), elapsed)
		}
	}

	fmt.Fprintf(w, "\n%d jobs: %d succeeded, %d failed\n", result.Total(), result.Succeeded, result.Failed)
	return result
}

func countArtifacts(rs []types.Result) int {
	n := 0
	for _, r := range rs {
		if r.OK() {
			n++
		}
	}
	return n
}
