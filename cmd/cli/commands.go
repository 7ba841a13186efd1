package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
)

var (
	green = color.New(color.FgGreen, color.Bold)
	red   = color.New(color.FgRed, color.Bold)
)

func accountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account balance and integrity operations",
	}

	cmd.AddCommand(
		accountBalanceCmd(opts),
		accountHistoryCmd(opts),
		accountValidateCmd(opts),
		accountReconcileCmd(opts),
	)

	return cmd
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger-wide operations",
	}

	cmd.AddCommand(ledgerConsistencyCmd(opts), ledgerReconcileCmd(opts))

	return cmd
}

func accountBalanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the balance derived from an account's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.BalanceResponse
			_, body, err := newClient(opts).do(cmd.Context(), http.MethodGet, "/accounts/"+url.PathEscape(args[0])+"/balance", nil, &resp)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), body)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", resp.Balance, resp.Currency)
			return nil
		},
	}
}

func accountHistoryCmd(opts *options) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "Show end-of-day balances over a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"start": {start}, "end": {end}}

			var resp dto.BalanceHistoryResponse
			_, body, err := newClient(opts).do(cmd.Context(), http.MethodGet, "/accounts/"+url.PathEscape(args[0])+"/balance/history", query, &resp)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), body)
			}

			if len(resp.Points) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no entries between %s and %s\n", resp.Start, resp.End)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "DATE\tBALANCE\t")
			for _, p := range resp.Points {
				fmt.Fprintf(tw, "%s\t%s\t\n", p.Date, p.Balance)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func accountValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <account-id>",
		Short: "Compare the cached balance with the entries behind it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReconciliationResponse
			_, body, err := newClient(opts).do(cmd.Context(), http.MethodGet, "/accounts/"+url.PathEscape(args[0])+"/integrity", nil, &resp)
			if err != nil {
				return err
			}
			if opts.json {
				if err := printJSON(cmd.OutOrStdout(), body); err != nil {
					return err
				}
			} else {
				printReconciliation(cmd.OutOrStdout(), &resp)
			}

			if !resp.IsReconciled {
				return errUnhealthy
			}
			return nil
		},
	}
}

func accountReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <account-id>",
		Short: "Rewrite the cached balance from the account's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReconciliationResponse
			_, body, err := newClient(opts).do(cmd.Context(), http.MethodPost, "/accounts/"+url.PathEscape(args[0])+"/reconcile", nil, &resp)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), body)
			}

			printReconciliation(cmd.OutOrStdout(), &resp)
			if resp.Corrected {
				fmt.Fprintf(cmd.OutOrStdout(), "cached balance corrected to %s\n", resp.CalculatedBalance)
			}
			return nil
		},
	}
}

func ledgerConsistencyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that debits equal credits in every currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.LedgerConsistencyResponse
			_, body, err := newClient(opts).do(cmd.Context(), http.MethodGet, "/ledger/consistency", nil, &resp,
				http.StatusOK, http.StatusConflict)
			if err != nil {
				return err
			}
			if opts.json {
				if err := printJSON(cmd.OutOrStdout(), body); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CURRENCY\tDEBITS\tCREDITS\tSTATUS")
				for _, c := range resp.Currencies {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Currency, c.Debits, c.Credits, status(c.Balanced))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Consistency check %s\n", passFail(resp.Consistent))
			}

			if !resp.Consistent {
				return errUnhealthy
			}
			return nil
		},
	}
}

func ledgerReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile every account and report discrepancies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReconciliationReportResponse
			_, body, err := newClient(opts).do(cmd.Context(), http.MethodPost, "/ledger/reconcile", nil, &resp)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), body)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "accounts: %d  reconciled: %d  corrected: %d  failed: %d\n",
				resp.TotalAccounts, resp.ReconciledAccounts, resp.CorrectedAccounts, len(resp.Failed))
			for _, d := range resp.Discrepancies {
				printReconciliation(out, d)
			}
			for _, id := range resp.Failed {
				fmt.Fprintf(out, "%s %s\n", red.Sprint("FAILED"), id)
			}
			fmt.Fprintf(out, "Ledger consistency %s\n", passFail(resp.LedgerConsistent))

			if len(resp.Failed) > 0 || !resp.LedgerConsistent {
				return errUnhealthy
			}
			return nil
		},
	}
}

func printReconciliation(w io.Writer, r *dto.ReconciliationResponse) {
	fmt.Fprintf(w, "%s %s recorded=%s calculated=%s difference=%s\n",
		status(r.IsReconciled && !r.Corrected), r.AccountID, r.RecordedBalance, r.CalculatedBalance, r.Difference)
}

func status(ok bool) string {
	if ok {
		return green.Sprint("OK")
	}
	return red.Sprint("DRIFT")
}

func passFail(ok bool) string {
	if ok {
		return green.Sprint("PASSED")
	}
	return red.Sprint("FAILED")
}

// printJSON re-indents a raw JSON body.
func printJSON(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
