// Command sweep frees the regtest harness's service port and shuts the
// harness down: it kills whatever process is listening on the port,
// then runs the external stop script and propagates its exit status.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dnlvgl/sweep/internal/config"
	"github.com/dnlvgl/sweep/internal/port"
	"github.com/dnlvgl/sweep/internal/stopscript"
	"github.com/dnlvgl/sweep/internal/sweep"
	"github.com/dnlvgl/sweep/internal/ui"
)

var version = "dev" // overridden at build time via -ldflags

var (
	cfgFile string
	cfg     config.Config

	flagDryRun      bool
	flagGraceful    bool
	flagAuto        bool
	flagInteractive bool
	flagSkipStop    bool
)

var rootCmd = &cobra.Command{
	Use:   "sweep [port]",
	Short: "Free a service port and stop the regtest harness",
	Long: `Kills whatever process is listening on the harness's service port
(default 9801), then runs the stop script with elevated privileges.
Exits non-zero if the port's owner cannot be identified or killed, or
if the stop script fails; the stop script is never run after a failed
kill.`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
	// Errors are printed once, in main
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .sweep.yaml, then ~/.config/sweep/config.yaml)")
	rootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false,
		"show what would be done without doing it")
	rootCmd.Flags().BoolVarP(&flagGraceful, "graceful", "g", false,
		"SIGTERM first, escalate to SIGKILL after the grace period")
	rootCmd.Flags().BoolVar(&flagAuto, "auto", false,
		"stop containerized/systemd-managed listeners via their own tooling")
	rootCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false,
		"inspect and confirm in a TUI before sweeping")
	rootCmd.Flags().BoolVar(&flagSkipStop, "skip-stop", false,
		"kill step only, do not run the stop script")
	rootCmd.Flags().String("script", "", "stop script to run")
	rootCmd.Flags().Bool("no-sudo", false, "run the stop script without sudo")

	_ = viper.BindPFlag("stop.command", rootCmd.Flags().Lookup("script"))
	_ = viper.BindPFlag("kill.graceful", rootCmd.Flags().Lookup("graceful"))
	_ = viper.BindPFlag("kill.auto", rootCmd.Flags().Lookup("auto"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("port", defaults.Port)
	viper.SetDefault("kill.graceful", defaults.Kill.Graceful)
	viper.SetDefault("kill.grace_period", defaults.Kill.GracePeriod)
	viper.SetDefault("kill.auto", defaults.Kill.Auto)
	viper.SetDefault("stop.command", defaults.Stop.Command)
	viper.SetDefault("stop.args", defaults.Stop.Args)
	viper.SetDefault("stop.sudo", defaults.Stop.Sudo)
	viper.SetDefault("stop.timeout", defaults.Stop.Timeout)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .sweep.yaml (current directory)
		// 2. ~/.config/sweep/config.yaml (user config)
		if _, err := os.Stat(".sweep.yaml"); err == nil {
			viper.SetConfigFile(".sweep.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "sweep"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Running without a config file is the normal case
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func run(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	query := port.Query{Port: cfg.Port}
	if len(args) == 1 {
		q, err := port.Parse(args[0])
		if err != nil {
			return err
		}
		query = q
	}

	if noSudo, _ := cmd.Flags().GetBool("no-sudo"); noSudo {
		cfg.Stop.Sudo = false
	}

	killer := &sweep.ProcessKiller{
		Graceful:    cfg.Kill.Graceful,
		GracePeriod: cfg.Kill.GracePeriod,
		Auto:        cfg.Kill.Auto,
	}
	stopper := &stopscript.Runner{
		Command: cfg.Stop.Command,
		Args:    cfg.Stop.Args,
		Sudo:    cfg.Stop.Sudo,
		Timeout: cfg.Stop.Timeout,
	}
	detector := sweep.DetectorFunc(port.Detect)

	if flagInteractive {
		return runInteractive(query, detector, killer, stopper)
	}

	runner := &sweep.Runner{
		Query:    query,
		Detector: detector,
		Killer:   killer,
		Stopper:  stopper,
		SkipStop: flagSkipStop,
		DryRun:   flagDryRun,
		Out:      os.Stderr,
	}
	return runner.Run(context.Background())
}

func runInteractive(query port.Query, detector sweep.Detector, killer sweep.Killer, stopper sweep.Stopper) error {
	model := ui.New(query, detector, killer, stopper, flagSkipStop, cfg.Kill.Graceful)
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	if m, ok := final.(ui.Model); ok && m.Failed() {
		return fmt.Errorf("sweep failed")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
