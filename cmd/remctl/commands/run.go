package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	remctl "github.com/remctl/remctl-go"
	"github.com/remctl/remctl-go/internal/gssapiprovider"
	"github.com/remctl/remctl-go/internal/logger"
	"github.com/remctl/remctl-go/pkg/krb5cred"
)

var runCmd = &cobra.Command{
	Use:     "run -- COMMAND [ARG...]",
	Short:   "Run a command on a remctl server",
	Args:    cobra.MinimumNArgs(1),
	Example: "  remctl run --host archive.example.org -- backup list",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := gssapiprovider.NewKerberosProvider()
		session := remctl.NewSession(provider)
		defer session.Close()

		if Flags.Keytab != "" {
			cred, err := krb5cred.Load(krb5cred.Options{
				Principal:    cfg.Keytab.Principal,
				KeytabPath:   Flags.Keytab,
				Krb5ConfPath: cfg.Keytab.Krb5ConfPath,
			})
			if err != nil {
				return fmt.Errorf("load credential: %w", err)
			}
			defer cred.Close()

			if err := session.SetCredential(remctl.Credential{
				Usage:      remctl.CredentialUsageInitiateOnly,
				Underlying: cred,
			}); err != nil {
				return fmt.Errorf("set credential: %w", err)
			}
		}

		if Flags.SourceIP != "" {
			if err := session.SetSourceIP(Flags.SourceIP); err != nil {
				return fmt.Errorf("set source IP: %w", err)
			}
		}

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

		if err := session.Command(args, false); err != nil {
			return fmt.Errorf("send command: %w", err)
		}

		exitCode := 0
	drain:
		for {
			out, err := session.Output()
			if err != nil {
				return fmt.Errorf("read output: %w", err)
			}

			switch out.Type {
			case remctl.OutputChunk:
				switch out.Stream {
				case remctl.StreamStdout:
					os.Stdout.Write(out.Chunk)
				case remctl.StreamStderr:
					os.Stderr.Write(out.Chunk)
				}
			case remctl.OutputStatus:
				exitCode = int(out.ExitCode)
				break drain
			case remctl.OutputError:
				logger.Error("server reported an error", logger.KeyError, out.ErrorMessage)
				return fmt.Errorf("server error %d: %s", out.ErrorCode, out.ErrorMessage)
			case remctl.OutputDone:
				break drain
			}
		}

		session.Close()
		if exitCode != 0 {
			os.Exit(exitCode)
		}
		return nil
	},
}
