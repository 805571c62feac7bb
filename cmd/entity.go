package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dopejs/tmplvars/internal/template"
	"github.com/spf13/cobra"
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage the entities of a template",
}

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities",
	Args:  cobra.NoArgs,
	RunE:  runEntityList,
}

var entityAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityAdd,
}

func init() {
	entityAddCmd.Flags().String("name", "", "display name")
	entityAddCmd.Flags().String("description", "", "description")

	entityCmd.AddCommand(entityListCmd)
	entityCmd.AddCommand(entityAddCmd)
}

func runEntityList(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.cat.Snapshot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ids := snap.OrderedEntityIDs()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No entities. Run 'tmplvars entity add <id>' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVARIABLES\tINTERNAL ID")
	for _, id := range ids {
		e := snap.EntitiesByInternalID[id]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.ID, e.Name, len(e.VariableInternalIDs), id)
	}
	return w.Flush()
}

func runEntityAdd(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	name, _ := cmd.Flags().GetString("name")
	desc, _ := cmd.Flags().GetString("description")
	e := template.Entity{ID: args[0], Name: name, Description: desc}

	internalID, err := env.cat.AddEntity(e)
	if err != nil {
		return err
	}
	env.logger.Info("entity added", "entity", internalID, "id", e.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Added entity %s (%s)\n", e.ID, internalID)
	return nil
}
