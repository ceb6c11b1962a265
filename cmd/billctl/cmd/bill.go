package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	billFrom   string
	billTo     string
	billFormat string
	billOut    string
)

var billCmd = &cobra.Command{
	Use:   "bill <provider-id>",
	Short: "Fetch a provider bill",
	Long: `Fetch the bill of one provider for a window.

Timestamps use the yyyymmddhhmmss layout in facility time. Without --from
the window starts on the first of the current month; without --to it ends now.`,
	Args: cobra.ExactArgs(1),
	RunE: runBill,
}

func init() {
	billCmd.Flags().StringVar(&billFrom, "from", "", "window start (yyyymmddhhmmss)")
	billCmd.Flags().StringVar(&billTo, "to", "", "window end (yyyymmddhhmmss)")
	billCmd.Flags().StringVarP(&billFormat, "format", "f", "table", "output format (table, json, pdf)")
	billCmd.Flags().StringVarP(&billOut, "out", "o", "", "write output to a file instead of stdout")
}

func runBill(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient(apiURL, timeout)
	if err != nil {
		return err
	}

	query := url.Values{}
	if billFrom != "" {
		query.Set("from", billFrom)
	}
	if billTo != "" {
		query.Set("to", billTo)
	}
	switch billFormat {
	case "pdf":
		query.Set("format", "pdf")
	case "json", "table":
	default:
		return fmt.Errorf("unknown format %q", billFormat)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	data, err := client.do(ctx, http.MethodGet, "/bill/"+url.PathEscape(args[0]), query, nil, "")
	if err != nil {
		if isAPIError(err, "provider_not_found") {
			return fmt.Errorf("provider %s delivered nothing in the window: %w", args[0], err)
		}
		return err
	}

	out, closeOut, err := openOutput(cmd, billOut)
	if err != nil {
		return err
	}
	defer closeOut()

	switch billFormat {
	case "pdf", "json":
		_, err = out.Write(data)
		return err
	default:
		return printBillTable(out, data)
	}
}

type billView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	From         string `json:"from"`
	To           string `json:"to"`
	TruckCount   int    `json:"truckCount"`
	SessionCount int    `json:"sessionCount"`
	Products     []struct {
		Product string `json:"product"`
		Count   int    `json:"count"`
		Amount  int64  `json:"amount"`
		Rate    *int64 `json:"rate"`
		Pay     *int64 `json:"pay"`
	} `json:"products"`
	Total       int64 `json:"total"`
	Diagnostics struct {
		Partial bool `json:"partial"`
	} `json:"diagnostics"`
}

func printBillTable(w io.Writer, data []byte) error {
	var bill billView
	if err := json.Unmarshal(data, &bill); err != nil {
		return fmt.Errorf("decode bill: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Provider %s (%s)\n", bill.Name, bill.ID)
	fmt.Fprintf(&buf, "Window   %s - %s\n", bill.From, bill.To)
	fmt.Fprintf(&buf, "Trucks   %d  Sessions %d\n\n", bill.TruckCount, bill.SessionCount)
	fmt.Fprintf(&buf, "%-20s %8s %12s %10s %14s\n", "PRODUCT", "COUNT", "NETO (KG)", "RATE", "PAY")
	for _, p := range bill.Products {
		fmt.Fprintf(&buf, "%-20s %8d %12d %10s %14s\n", p.Product, p.Count, p.Amount, agorot(p.Rate), agorot(p.Pay))
	}
	fmt.Fprintf(&buf, "\n%-20s %47s\n", "TOTAL", agorot(&bill.Total))
	if bill.Diagnostics.Partial {
		fmt.Fprintln(&buf, "\nPartial bill: some weighing data could not be used.")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func agorot(v *int64) string {
	if v == nil {
		return "-"
	}
	return decimal.New(*v, -2).StringFixed(2)
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
