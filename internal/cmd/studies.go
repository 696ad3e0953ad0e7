package cmd

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

var studiesCmd = &cobra.Command{
	Use:   "studies",
	Short: "Manage stored studies",
	Long:  `Commands for listing and deleting the studies kept by the configured storage backend.`,
}

var studiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored studies",
	Long: `List the PDF IDs that have a stored study, with their game and analysis
counts. --match filters the IDs with a glob such as "endgames-*".`,
	Args: cobra.NoArgs,
	RunE: runStudiesList,
}

var studiesDeleteCmd = &cobra.Command{
	Use:   "delete <pdf-id>",
	Short: "Delete a stored study",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudiesDelete,
}

func init() {
	rootCmd.AddCommand(studiesCmd)
	studiesCmd.AddCommand(studiesListCmd)
	studiesCmd.AddCommand(studiesDeleteCmd)

	studiesListCmd.Flags().String("match", "", "only list IDs matching this glob")
}

// filterIDs keeps the IDs matching pattern; an empty pattern keeps all.
func filterIDs(ids []string, pattern string) ([]string, error) {
	if pattern == "" {
		return ids, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid --match pattern %q: %w", pattern, err)
	}
	var out []string
	for _, id := range ids {
		if g.Match(id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func runStudiesList(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("match")

	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	st, err := d.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ids, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list studies: %w", err)
	}
	ids, err = filterIDs(ids, pattern)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No studies found.")
		return nil
	}
	for _, id := range ids {
		s, found, err := st.Load(ctx, id)
		if err != nil || !found {
			fmt.Fprintf(out, "%s\t(unreadable)\n", id)
			continue
		}
		fmt.Fprintf(out, "%s\t%d games\t%d analyses\t%d links\n",
			id, len(s.Games), len(s.Analyses), s.Continuations.Len())
	}
	return nil
}

func runStudiesDelete(cmd *cobra.Command, args []string) error {
	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	st, err := d.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete study: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted study %s\n", args[0])
	return nil
}
