package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/pricing"
	"github.com/pkordes/tripproposal/internal/service"
)

func newPriceCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a proposal read from a JSON file",
		Long: `Price a proposal read from a JSON file ("-" reads stdin). The file has
the same shape as the body of POST /pricing/breakdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proposal, err := readProposal(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			// Pricing an ad-hoc proposal never touches the trip store.
			b, err := service.NewTripService(nil).PriceProposal(proposal)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			_, err = fmt.Fprint(out, breakdownTable(b).render(painterFor(out)))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `proposal JSON file, or "-" for stdin`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readProposal(stdin io.Reader, file string) (pricing.Proposal, error) {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return pricing.Proposal{}, err
		}
		defer f.Close()
		r = f
	}

	var p pricing.Proposal
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return pricing.Proposal{}, fmt.Errorf("read proposal: %w", err)
	}
	return p, nil
}

var breakdownRows = []struct{ key, label string }{
	{"subtotal", "Subtotal"},
	{"taxes", "Taxes"},
	{"markup", "Markup"},
	{"total", "Total"},
	{"price_per_adult", "Per adult"},
	{"price_per_child", "Per child"},
}

func breakdownTable(b domain.PriceBreakdown) *table {
	t := &table{header: []string{"Item", "Amount (" + b.Currency + ")"}}
	for _, row := range breakdownRows {
		t.add(row.label, b.Formatted[row.key])
	}
	return t
}
