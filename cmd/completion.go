package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/config"
	"github.com/dopejs/tmplvars/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tmplvars %s\n", Version)
	},
}

var completionCmd = &cobra.Command{
	Use:       "completion [zsh|bash|fish|powershell]",
	Short:     "Generate shell completion script",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"zsh", "bash", "fish", "powershell"},
	RunE:      runCompletion,
}

func runCompletion(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "zsh":
		return rootCmd.GenZshCompletion(os.Stdout)
	case "bash":
		return rootCmd.GenBashCompletionV2(os.Stdout, true)
	case "fish":
		return rootCmd.GenFishCompletion(os.Stdout, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
	}
	fmt.Fprintf(os.Stderr, "Unsupported shell: %s\n", args[0])
	return nil
}

// completeEntityRefs offers the template's entity ids.
func completeEntityRefs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var flags *pflag.FlagSet
	if cmd != nil {
		flags = cmd.Flags()
	}
	s, err := config.Load(cfgFile, flags)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cat, err := catalog.Open(s.Backend, s.Template, logging.Discard())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer cat.Close()
	snap, err := cat.Snapshot()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, id := range snap.OrderedEntityIDs() {
		if e := snap.EntitiesByInternalID[id]; strings.HasPrefix(e.ID, toComplete) {
			names = append(names, e.ID)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeVariableTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return typeNames(), cobra.ShellCompDirectiveNoFileComp
}
