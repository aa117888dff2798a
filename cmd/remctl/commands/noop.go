package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	remctl "github.com/remctl/remctl-go"
	"github.com/remctl/remctl-go/internal/gssapiprovider"
)

var noopCmd = &cobra.Command{
	Use:   "noop",
	Short: "Probe a remctl server with a protocol-v3 NOOP",
	Long: `noop opens a session, sends a NOOP message, and verifies the server
replies in kind. It exists to check connectivity and that the server
speaks protocol v3, without running a command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := gssapiprovider.NewKerberosProvider()
		session := remctl.NewSession(provider)
		defer session.Close()

		if Flags.Timeout > 0 {
			if err := session.SetTimeout(Flags.Timeout.Seconds()); err != nil {
				return fmt.Errorf("set timeout: %w", err)
			}
		}

		target := remctl.DefaultTargetName(Flags.Host)
		if Flags.Principal != "" {
			target = remctl.HostBasedTargetName(Flags.Principal)
		}

		if err := session.Open(Flags.Host, Flags.Port, target); err != nil {
			return fmt.Errorf("open session to %s:%d: %w", Flags.Host, Flags.Port, err)
		}

		if err := session.Noop(); err != nil {
			return fmt.Errorf("noop: %w", err)
		}

		fmt.Printf("%s:%d is alive\n", Flags.Host, Flags.Port)
		return nil
	},
}
