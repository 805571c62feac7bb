package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/dopejs/tmplvars/internal/config"
	"github.com/dopejs/tmplvars/internal/daemon"
	"github.com/dopejs/tmplvars/internal/web"
	"github.com/spf13/cobra"
)

var serveDaemonFlag bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the variables API on 127.0.0.1",
	Long:  "Start an HTTP server on 127.0.0.1 exposing the template's entities and variables as JSON.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, running := daemon.IsRunning(); !running {
			fmt.Fprintln(cmd.OutOrStdout(), "Server is not running.")
			return nil
		}
		if err := daemon.Stop(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Server stopped.")
		return nil
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show background server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, running := daemon.IsRunning()
		if !running {
			fmt.Fprintln(cmd.OutOrStdout(), "Server is not running.")
			return nil
		}
		s, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server is running (PID %d) on http://127.0.0.1:%d\n", pid, s.Web.Port)
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default 19850)")
	serveCmd.Flags().BoolVarP(&serveDaemonFlag, "daemon", "d", false, "run in the background")
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveDaemonFlag && !daemon.IsChild() {
		return startDaemon(cmd)
	}

	if pid, running := daemon.IsRunning(); running && pid != os.Getpid() {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	port := env.settings.Web.Port
	srv := web.NewServer(env.cat, port, Version, env.logger)

	if err := daemon.WritePid(os.Getpid()); err != nil {
		env.logger.Warn("write pid file", "error", err)
	}
	defer daemon.RemovePid()

	// Graceful shutdown on signals.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		env.logger.Info("shutting down web server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://127.0.0.1:%d/api/v1\n", env.settings.Template, port)
	return srv.Start()
}

// startDaemon re-executes serve as a detached child and waits for it to answer.
func startDaemon(cmd *cobra.Command) error {
	if pid, running := daemon.IsRunning(); running {
		fmt.Fprintf(cmd.OutOrStdout(), "Server already running (PID %d).\n", pid)
		return nil
	}

	s, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot determine executable path: %w", err)
	}

	if err := os.MkdirAll(config.ConfigDirPath(), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(s.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("cannot open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, daemon.ChildArgs(os.Args[1:])...)
	child.Env = append(os.Environ(), daemon.ChildEnv+"=1")
	child.Stdout = logFile
	child.Stderr = logFile
	child.SysProcAttr = daemon.SysProcAttr()

	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	daemon.WritePid(child.Process.Pid)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := web.WaitForReady(ctx, s.Web.Port); err != nil {
		return fmt.Errorf("server started but did not become ready: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Server started in background (PID %d) on http://127.0.0.1:%d/api/v1\n", child.Process.Pid, s.Web.Port)
	return nil
}
