package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/ledgertx/internal/adapter/http/dto"
)

var (
	baseURL string
	timeout time.Duration
	stdout  io.Writer = os.Stdout
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledgertx-cli",
		Short:         "Ledger transaction engine CLI",
		Long:          `A command line interface for inspecting transactions, accounts and ledger consistency over the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(ledgerCmd(), transactionCmd(), accountCmd())
	return rootCmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that debits and credits balance across all entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency(cmd.Context())
		},
	})

	return cmd
}

func transactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"tx"},
		Short:   "Transaction operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tx dto.TransactionResponse
			if err := doJSON(cmd.Context(), http.MethodGet, "/api/v1/transactions/"+url.PathEscape(args[0]), nil, &tx); err != nil {
				return err
			}
			printJSON(tx)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "entries <id>",
		Short: "List the entries of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []*dto.EntryResponse
			if err := doJSON(cmd.Context(), http.MethodGet, "/api/v1/transactions/"+url.PathEscape(args[0])+"/entries", nil, &entries); err != nil {
				return err
			}
			printEntries(entries)
			return nil
		},
	})

	var description string
	reverseCmd := &cobra.Command{
		Use:   "reverse <id>",
		Short: "Reverse a completed transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tx dto.TransactionResponse
			body := dto.ReverseTransactionRequest{Description: description}
			if err := doJSON(cmd.Context(), http.MethodPost, "/api/v1/transactions/"+url.PathEscape(args[0])+"/reverse", body, &tx); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Reversal %s queued (status %s)\n", tx.ID, tx.Status)
			return nil
		},
	}
	reverseCmd.Flags().StringVar(&description, "description", "", "Description of the reversal")
	cmd.AddCommand(reverseCmd)

	return cmd
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show an account and its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var acc dto.AccountResponse
			if err := doJSON(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, &acc); err != nil {
				return err
			}
			printJSON(acc)
			return nil
		},
	})

	return cmd
}

func checkConsistency(ctx context.Context) error {
	var report dto.ConsistencyResponse
	err := doJSON(ctx, http.MethodGet, "/api/v1/ledger/consistency", nil, &report)
	// An inconsistent ledger answers 409 with the report as body.
	if err != nil && report.Status == "" {
		return err
	}

	if !report.Consistent {
		fmt.Fprintf(stdout, "Consistency check FAILED\n")
		printJSON(report)
		return fmt.Errorf("ledger is inconsistent: difference %s", report.Difference)
	}

	fmt.Fprintf(stdout, "Consistency check PASSED\n")
	fmt.Fprintf(stdout, "Debits: %s Credits: %s Transactions: %d\n", report.TotalDebits, report.TotalCredits, report.Transactions)
	return nil
}

// doJSON sends body as JSON and decodes the response into out. Non-2xx
// responses are returned as errors; out is still filled when the body is
// JSON.
func doJSON(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		_ = json.Unmarshal(data, out)
		var apiErr dto.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printEntries(entries []*dto.EntryResponse) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACCOUNT\tTYPE\tAMOUNT\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.AccountID, e.EntryType, e.Amount, truncate(e.Description, 40))
	}
	w.Flush()
}

func printJSON(v any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
