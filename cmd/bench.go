package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
)

var (
	benchIterations int
	benchJSON       bool
)

var benchCmd = &cobra.Command{
	Use:   "bench <serial>...",
	Short: "Measure lookup latency against the configured source",
	Long: `Run each serial number through the lookup service repeatedly and report
average, median, fastest, slowest, standard deviation and queries per second.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 100, "lookups per serial number")
	benchCmd.Flags().BoolVar(&benchJSON, "json", false, "print results as JSON")
}

// BenchResult summarises the timings of one serial number.
type BenchResult struct {
	Serial     string  `json:"pcb_sr_no"`
	Iterations int     `json:"iterations"`
	Found      bool    `json:"found"`
	Failures   int     `json:"failures"`
	AvgMS      float64 `json:"avg_time_ms"`
	MedianMS   float64 `json:"median_time_ms"`
	MinMS      float64 `json:"min_time_ms"`
	MaxMS      float64 `json:"max_time_ms"`
	StdDevMS   float64 `json:"std_dev_ms"`
	QPS        float64 `json:"qps"`
	Rating     string  `json:"rating"`
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchIterations <= 0 {
		return withExitCode(ExitUsage, fmt.Errorf("--iterations must be positive"))
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Per-lookup info logs would swamp the timings.
	svc, src, err := openService(cmd.Context(), cfg, logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	results := make([]BenchResult, 0, len(args))
	for _, serial := range args {
		res, err := benchSerial(cmd.Context(), svc, serial, benchIterations)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	if benchJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printBench(cmd.OutOrStdout(), results)
	return nil
}

// benchSerial times n lookups of serial. Not-found counts as a successful
// query; service failures are counted, a blank serial aborts.
func benchSerial(ctx context.Context, svc services.LookupService, serial string, n int) (BenchResult, error) {
	timings := make([]time.Duration, 0, n)
	res := BenchResult{Serial: serial, Iterations: n}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		start := time.Now()
		_, err := svc.Lookup(ctx, serial)
		timings = append(timings, time.Since(start))

		switch {
		case err == nil:
			res.Found = true
		case apperrors.IsValidation(err):
			return res, withExitCode(ExitUsage, err)
		case apperrors.IsNotFound(err):
		default:
			res.Failures++
		}
	}

	summarize(&res, timings)
	return res, nil
}

func summarize(res *BenchResult, timings []time.Duration) {
	if len(timings) == 0 {
		return
	}

	ms := make([]float64, len(timings))
	var sum float64
	for i, d := range timings {
		ms[i] = float64(d) / float64(time.Millisecond)
		sum += ms[i]
	}
	sort.Float64s(ms)

	n := len(ms)
	res.AvgMS = sum / float64(n)
	res.MinMS = ms[0]
	res.MaxMS = ms[n-1]
	if n%2 == 1 {
		res.MedianMS = ms[n/2]
	} else {
		res.MedianMS = (ms[n/2-1] + ms[n/2]) / 2
	}

	if n > 1 {
		var sq float64
		for _, v := range ms {
			sq += (v - res.AvgMS) * (v - res.AvgMS)
		}
		res.StdDevMS = math.Sqrt(sq / float64(n-1))
	}
	if res.AvgMS > 0 {
		res.QPS = math.Round(1000 / res.AvgMS)
	}
	res.Rating = rate(res.AvgMS)
}

func rate(avgMS float64) string {
	switch {
	case avgMS < 1:
		return "excellent"
	case avgMS < 5:
		return "good"
	case avgMS < 20:
		return "okay"
	default:
		return "needs improvement"
	}
}

func printBench(w io.Writer, results []BenchResult) {
	for _, r := range results {
		found := "no"
		if r.Found {
			found = "yes"
		}
		fmt.Fprintf(w, "Serial Number:   %s\n", r.Serial)
		fmt.Fprintf(w, "Record found:    %s\n", found)
		fmt.Fprintf(w, "Iterations:      %d (%d failed)\n", r.Iterations, r.Failures)
		fmt.Fprintf(w, "Average:         %.3f ms\n", r.AvgMS)
		fmt.Fprintf(w, "Median:          %.3f ms\n", r.MedianMS)
		fmt.Fprintf(w, "Fastest:         %.3f ms\n", r.MinMS)
		fmt.Fprintf(w, "Slowest:         %.3f ms\n", r.MaxMS)
		fmt.Fprintf(w, "Std deviation:   %.3f ms\n", r.StdDevMS)
		fmt.Fprintf(w, "Queries/second:  %.0f\n", r.QPS)
		fmt.Fprintf(w, "Rating:          %s\n\n", r.Rating)
	}
}
