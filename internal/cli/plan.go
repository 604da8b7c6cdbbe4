package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/planner"
)

type planOptions struct {
	start     string
	nights    int
	preset    string
	durations []int
	json      bool
}

func newPlanCmd() *cobra.Command {
	var opts planOptions
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Split a trip into hotel segments",
		Example: `  splitstay plan --start 2024-05-10 --nights 4 --preset 2+2
  splitstay plan --start 2024-05-10 --nights 5 --durations 1,3,1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.start, "start", "", "first night of the trip (YYYY-MM-DD)")
	f.IntVar(&opts.nights, "nights", 0, "number of nights in the trip")
	f.StringVar(&opts.preset, "preset", "", "named split such as 2+2")
	f.IntSliceVar(&opts.durations, "durations", nil, "nights per segment, comma separated")
	f.BoolVar(&opts.json, "json", false, "print segments as JSON")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("nights")
	cmd.MarkFlagsMutuallyExclusive("preset", "durations")
	cmd.MarkFlagsOneRequired("preset", "durations")
	return cmd
}

// planSegment is the JSON shape printed with --json.
type planSegment struct {
	Index    int    `json:"index"`
	Nights   int    `json:"nights"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func runPlan(cmd *cobra.Command, opts planOptions) error {
	start, err := time.Parse(time.DateOnly, opts.start)
	if err != nil {
		return fmt.Errorf("invalid --start %q: want YYYY-MM-DD", opts.start)
	}
	durations := opts.durations
	if opts.preset != "" {
		if durations, err = planner.ParsePreset(opts.preset); err != nil {
			return err
		}
	}
	segments, err := planner.Plan(start, opts.nights, durations)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		rows := make([]planSegment, len(segments))
		for i, s := range segments {
			rows[i] = planSegment{
				Index:    s.Index,
				Nights:   s.Duration,
				CheckIn:  s.StartDate.Format(time.DateOnly),
				CheckOut: s.EndDate.Format(time.DateOnly),
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	p := painterFor(out)
	_, _ = fmt.Fprintln(out, p.Primary(planner.Describe(segments)))
	_, err = fmt.Fprint(out, segmentTable(segments).render(p))
	return err
}

func segmentTable(segments []domain.Segment) *table {
	t := &table{header: []string{"#", "Nights", "Check-in", "Check-out"}}
	for _, s := range segments {
		t.add(
			strconv.Itoa(s.Index+1),
			strconv.Itoa(s.Duration),
			s.StartDate.Format(time.DateOnly),
			s.EndDate.Format(time.DateOnly),
		)
	}
	return t
}
