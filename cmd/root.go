package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/config"
	"github.com/dopejs/tmplvars/internal/logging"
	"github.com/dopejs/tmplvars/internal/template"
	"github.com/dopejs/tmplvars/tui"
	"github.com/spf13/cobra"
)

var Version = "0.3.0"

var (
	cfgFile   string
	entityRef string
)

var rootCmd = &cobra.Command{
	Use:   "tmplvars",
	Short: "Edit the variables of an authentication template",
	Long: "Open the variables panel for one entity of a template. Variables can be listed, " +
		"created, edited and deleted; every change is written back to the template immediately.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runPanel,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.tmplvars/config.yaml)")
	pf.String("template", "", "template file (.json, .yaml) or SQLite database (.db)")
	pf.String("backend", "", "catalog backend: file or sqlite (default: from the template extension)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "log file (default ~/.tmplvars/tmplvars.log)")

	rootCmd.Flags().StringVarP(&entityRef, "entity", "e", "", "entity to edit (id or internal id)")
	rootCmd.RegisterFlagCompletionFunc("entity", completeEntityRefs)

	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(entityCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// appEnv is what every command opens: settings, the log file and the catalog.
type appEnv struct {
	settings  *config.Settings
	logger    *slog.Logger
	cat       catalog.Catalog
	logCloser io.Closer
}

func openEnv(cmd *cobra.Command) (*appEnv, error) {
	s, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.Open(s.Log.File, s.Log.Level)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(s.Backend, s.Template, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("open template %s: %w", s.Template, err)
	}
	logger.Debug("catalog opened", "command", cmd.CommandPath(), "template", s.Template, "backend", s.Backend)
	return &appEnv{settings: s, logger: logger, cat: cat, logCloser: closer}, nil
}

func (e *appEnv) Close() {
	if err := e.cat.Close(); err != nil {
		e.logger.Warn("close catalog", "error", err)
	}
	e.logCloser.Close()
}

func runPanel(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.cat.Snapshot()
	if err != nil {
		return err
	}
	entityID, err := pickEntity(snap, entityRef)
	if err != nil {
		return err
	}

	env.logger.Info("panel started", "entity", entityID, "template", env.settings.Template)
	return tui.Run(env.cat, entityID, env.logger)
}

// pickEntity resolves ref, or picks the only entity, or asks the user.
func pickEntity(t *template.Template, ref string) (string, error) {
	if ref != "" {
		id, _, err := catalog.ResolveEntity(t, ref)
		return id, err
	}
	ids := t.OrderedEntityIDs()
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("template has no entities. Run 'tmplvars entity add <id>' to create one")
	case 1:
		return ids[0], nil
	}
	return tui.RunSelectEntity(t)
}
