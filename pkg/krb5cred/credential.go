package krb5cred

import (
	"fmt"
	"os"
	"strings"

	krb5client "github.com/jcmturner/gokrb5/v8/client"
	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/keytab"

	"github.com/remctl/remctl-go/internal/logger"
)

// Credential is a loaded Kerberos initiator credential: a gokrb5 client
// backed by a keytab, ready to hand to a GSSAPI provider as the initiator
// credential for context establishment.
type Credential struct {
	client *krb5client.Client
}

// Client returns the underlying gokrb5 client, for GSSAPI providers that
// need it directly.
func (c *Credential) Client() *krb5client.Client {
	return c.client
}

// Close releases resources held by the underlying Kerberos client.
func (c *Credential) Close() {
	if c.client != nil {
		c.client.Destroy()
	}
}

// Options configures Load.
type Options struct {
	// Principal is the client principal, "user@REALM". Required.
	Principal string

	// KeytabPath is the path to the keytab file. Defaults to
	// REMCTL_KEYTAB, then /etc/remctl/client.keytab.
	KeytabPath string

	// Krb5ConfPath is the path to krb5.conf. Defaults to KRB5_CONFIG,
	// then /etc/krb5.conf.
	Krb5ConfPath string
}

// Load reads a keytab and krb5.conf and builds a logged-in Kerberos client
// credential for opts.Principal.
func Load(opts Options) (*Credential, error) {
	if opts.Principal == "" {
		return nil, fmt.Errorf("krb5cred: principal is required")
	}

	userAndRealm := strings.SplitN(opts.Principal, "@", 2)
	if len(userAndRealm) != 2 {
		return nil, fmt.Errorf("krb5cred: invalid principal %q, want user@REALM", opts.Principal)
	}

	keytabPath := resolveKeytabPath(opts.KeytabPath)
	kt, err := loadKeytab(keytabPath)
	if err != nil {
		return nil, fmt.Errorf("krb5cred: load keytab %s: %w", keytabPath, err)
	}

	krb5ConfPath := resolveKrb5ConfPath(opts.Krb5ConfPath)
	krbCfg, err := krb5config.Load(krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("krb5cred: load krb5.conf %s: %w", krb5ConfPath, err)
	}

	client := krb5client.NewWithKeytab(userAndRealm[0], userAndRealm[1], kt, krbCfg)
	if err := client.AffirmLogin(); err != nil {
		return nil, fmt.Errorf("krb5cred: login for %s: %w", opts.Principal, err)
	}

	logger.Debug("kerberos credential loaded", logger.KeyPrincipal, opts.Principal)

	return &Credential{client: client}, nil
}

func loadKeytab(path string) (*keytab.Keytab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keytab file: %w", err)
	}

	kt := keytab.New()
	if err := kt.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("parse keytab: %w", err)
	}

	return kt, nil
}

func resolveKeytabPath(configured string) string {
	if configured != "" {
		return configured
	}
	if envPath := os.Getenv("REMCTL_KEYTAB"); envPath != "" {
		return envPath
	}
	return "/etc/remctl/client.keytab"
}

func resolveKrb5ConfPath(configured string) string {
	if configured != "" {
		return configured
	}
	if envPath := os.Getenv("KRB5_CONFIG"); envPath != "" {
		return envPath
	}
	return "/etc/krb5.conf"
}
