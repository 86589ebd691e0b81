package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autoembed/internal/provider"
	"autoembed/internal/ui"
)

var (
	flagProvidersJSON bool
	flagCheck         bool
	flagInteractive   bool
)

var providersCmd = &cobra.Command{
	Use:   "providers [query]",
	Short: "List the supported providers",
	Long: `List the provider rules in match order. The optional query filters by
title or website. With --check, every rule's example URL is run through the
matcher to find rules that an earlier one shadows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: providersRun,
}

func init() {
	providersCmd.Flags().BoolVarP(&flagProvidersJSON, "json", "j", false, "Print the providers as JSON")
	providersCmd.Flags().BoolVar(&flagCheck, "check", false, "Check that every example URL matches its own rule")
	providersCmd.Flags().BoolVarP(&flagInteractive, "interactive", "I", false, "Browse the providers interactively")
	providersCmd.MarkFlagsMutuallyExclusive("json", "check", "interactive")
}

func providersRun(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if flagCheck {
		return checkProviders(cmd, table)
	}

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	summaries := table.Summaries(query)

	switch {
	case flagProvidersJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil

	case flagInteractive:
		chosen, ok, err := ui.Browse(summaries, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprint(out, ui.Describe(chosen))
		}
		return nil
	}

	if len(summaries) == 0 {
		fmt.Fprintf(out, "No providers match %q.\n", query)
		return nil
	}
	return ui.PrintProviders(out, summaries)
}

func checkProviders(cmd *cobra.Command, table *provider.Table) error {
	problems := table.Check()

	failed := 0
	for _, p := range problems {
		if p.Kind != provider.Unchecked {
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", p.Kind, p)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d providers do not match their own example", failed, table.Len())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d providers checked, no conflicts\n", table.Len())
	return nil
}
