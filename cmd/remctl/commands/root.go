// Package commands implements the remctl CLI commands.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/remctl/remctl-go/internal/logger"
	"github.com/remctl/remctl-go/pkg/config"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Flags holds the persistent connection flags shared by every subcommand.
var Flags struct {
	ConfigPath string
	Host       string
	Port       int
	Principal  string
	SourceIP   string
	Timeout    time.Duration
	Keytab     string
}

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "remctl",
	Short: "remctl client - remote command execution over GSSAPI",
	Long: `remctl is the command-line client for the remctl remote command
execution protocol. It authenticates to a remctl server with GSSAPI
(normally Kerberos), issues a command, and streams back its output.

Use "remctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(Flags.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}); err != nil {
			return err
		}

		if !cmd.Flags().Changed("host") && cfg.Host != "" {
			Flags.Host = cfg.Host
		}
		if !cmd.Flags().Changed("port") && cfg.Port != 0 {
			Flags.Port = cfg.Port
		}
		if !cmd.Flags().Changed("principal") && cfg.Principal != "" {
			Flags.Principal = cfg.Principal
		}
		if !cmd.Flags().Changed("source-ip") && cfg.SourceIP != "" {
			Flags.SourceIP = cfg.SourceIP
		}
		if !cmd.Flags().Changed("timeout") && cfg.Timeout != 0 {
			Flags.Timeout = cfg.Timeout
		}
		if !cmd.Flags().Changed("keytab") && cfg.Keytab.Path != "" {
			Flags.Keytab = cfg.Keytab.Path
		}

		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&Flags.ConfigPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&Flags.Host, "host", "localhost", "remctl server hostname")
	rootCmd.PersistentFlags().IntVar(&Flags.Port, "port", 4373, "remctl server port")
	rootCmd.PersistentFlags().StringVar(&Flags.Principal, "principal", "", "service principal (defaults to host@<host>)")
	rootCmd.PersistentFlags().StringVar(&Flags.SourceIP, "source-ip", "", "local address to bind the outbound connection to")
	rootCmd.PersistentFlags().DurationVar(&Flags.Timeout, "timeout", 0, "connect timeout (0 disables)")
	rootCmd.PersistentFlags().StringVar(&Flags.Keytab, "keytab", "", "keytab file for the initiator credential")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(noopCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
