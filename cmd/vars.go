package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/panel"
	"github.com/dopejs/tmplvars/internal/template"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "List and edit an entity's variables without the panel",
}

var varsListCmd = &cobra.Command{
	Use:               "list <entity>",
	Short:             "List an entity's variables in order",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeEntityRefs,
	RunE:              runVarsList,
}

var varsAddCmd = &cobra.Command{
	Use:               "add <entity>",
	Short:             "Append a new variable to an entity",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeEntityRefs,
	RunE:              runVarsAdd,
}

var varsSetCmd = &cobra.Command{
	Use:   "set <entity> <variable>",
	Short: "Change fields of an existing variable",
	Long:  "Change fields of an existing variable. Only the flags given are changed; the variable keeps its position.",
	Args:  cobra.ExactArgs(2),
	RunE:  runVarsSet,
}

var varsDeleteCmd = &cobra.Command{
	Use:     "delete <entity> <variable>",
	Aliases: []string{"rm"},
	Short:   "Delete a variable",
	Args:    cobra.ExactArgs(2),
	RunE:    runVarsDelete,
}

var varsJSONFlag bool

func init() {
	varsListCmd.Flags().BoolVar(&varsJSONFlag, "json", false, "print the list projection as JSON")

	addVariableFlags(varsAddCmd.Flags())
	addVariableFlags(varsSetCmd.Flags())
	varsAddCmd.MarkFlagRequired("type")
	varsAddCmd.MarkFlagRequired("id")
	varsAddCmd.RegisterFlagCompletionFunc("type", completeVariableTypes)

	varsCmd.AddCommand(varsListCmd)
	varsCmd.AddCommand(varsAddCmd)
	varsCmd.AddCommand(varsSetCmd)
	varsCmd.AddCommand(varsDeleteCmd)
}

func addVariableFlags(fs *pflag.FlagSet) {
	fs.String("type", "", "variable type: "+strings.Join(typeNames(), ", "))
	fs.String("id", "", "identifier used to reference the variable")
	fs.String("name", "", "display name")
	fs.String("description", "", "description")
	fs.Int("address-offset", 0, "HDKey: address index offset")
	fs.String("hd-public-key-path", "", "HDKey: HD public key derivation path")
	fs.String("private-path", "", "HDKey: private key derivation path")
	fs.String("public-path", "", "HDKey: public key derivation path")
}

func typeNames() []string {
	names := make([]string, len(template.VariableTypes))
	for i, t := range template.VariableTypes {
		names[i] = string(t)
	}
	return names
}

// parseVariableType matches a type name case-insensitively.
func parseVariableType(s string) (template.VariableType, error) {
	for _, t := range template.VariableTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", template.ErrUnhandledVariant, s, strings.Join(typeNames(), ", "))
}

// applyVariableFlags copies the flags the user set onto v.
func applyVariableFlags(fs *pflag.FlagSet, v *template.Variable) error {
	if fs.Changed("type") {
		raw, _ := fs.GetString("type")
		t, err := parseVariableType(raw)
		if err != nil {
			return err
		}
		if v.Type != "" && v.Type != t {
			return fmt.Errorf("cannot change the type of %s from %s to %s; delete it and add a new one", v.ID, v.Type, t)
		}
		v.Type = t
	}
	strFields := []struct {
		flag string
		dst  *string
	}{
		{"id", &v.ID},
		{"name", &v.Name},
		{"description", &v.Description},
		{"hd-public-key-path", &v.HDPublicKeyDerivationPath},
		{"private-path", &v.PrivateDerivationPath},
		{"public-path", &v.PublicDerivationPath},
	}
	for _, f := range strFields {
		if fs.Changed(f.flag) {
			*f.dst, _ = fs.GetString(f.flag)
		}
	}
	if fs.Changed("address-offset") {
		n, _ := fs.GetInt("address-offset")
		if n < 0 {
			return fmt.Errorf("address offset must be a non-negative integer")
		}
		v.AddressOffset = n
	}
	return nil
}

func runVarsList(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.cat.Snapshot()
	if err != nil {
		return err
	}
	entityID, _, err := catalog.ResolveEntity(snap, args[0])
	if err != nil {
		return err
	}
	l, err := panel.BuildList(snap, entityID)
	if err != nil {
		return err
	}
	if len(l.Dangling) > 0 {
		env.logger.Warn("entity lists missing variables", "entity", entityID, "ids", l.Dangling)
	}

	out := cmd.OutOrStdout()
	if varsJSONFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(l.Variables())
	}
	printVariables(out, l)
	return nil
}

func printVariables(out io.Writer, l panel.List) {
	items := l.Variables()
	if len(items) == 0 {
		fmt.Fprintf(out, "%s has no variables.\n", l.Entity.ID)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tTYPE\tDESCRIPTION")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.Icon, it.IDLabel, it.Name, it.Type, it.Description)
	}
	w.Flush()
	if len(l.Dangling) > 0 {
		fmt.Fprintf(out, "(%d missing variable reference(s) skipped)\n", len(l.Dangling))
	}
}

func runVarsAdd(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.cat.Snapshot()
	if err != nil {
		return err
	}
	entityID, _, err := catalog.ResolveEntity(snap, args[0])
	if err != nil {
		return err
	}

	var v template.Variable
	if err := applyVariableFlags(cmd.Flags(), &v); err != nil {
		return err
	}
	if !cmd.Flags().Changed("description") {
		desc, err := template.InitialDescription(v.Type)
		if err != nil {
			return err
		}
		v.Description = desc
	}

	internalID, err := env.cat.UpsertVariable(entityID, "", v)
	if err != nil {
		return err
	}
	env.logger.Info("variable saved", "entity", entityID, "variable", internalID, "id", v.ID, "created", true)
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", v.Type, v.ID, internalID)
	return nil
}

func runVarsSet(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.cat.Snapshot()
	if err != nil {
		return err
	}
	entityID, _, err := catalog.ResolveEntity(snap, args[0])
	if err != nil {
		return err
	}
	internalID, existing, err := catalog.ResolveVariable(snap, entityID, args[1])
	if err != nil {
		return err
	}

	v := *existing
	if err := applyVariableFlags(cmd.Flags(), &v); err != nil {
		return err
	}
	if _, err := env.cat.UpsertVariable(entityID, internalID, v); err != nil {
		return err
	}
	env.logger.Info("variable saved", "entity", entityID, "variable", internalID, "id", v.ID, "created", false)
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", v.ID)
	return nil
}

func runVarsDelete(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.cat.Snapshot()
	if err != nil {
		return err
	}
	entityID, _, err := catalog.ResolveEntity(snap, args[0])
	if err != nil {
		return err
	}
	internalID, v, err := catalog.ResolveVariable(snap, entityID, args[1])
	if err != nil {
		return err
	}
	if err := env.cat.DeleteVariable(entityID, internalID); err != nil {
		return err
	}
	env.logger.Info("variable deleted", "entity", entityID, "variable", internalID)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", v.ID)
	return nil
}
