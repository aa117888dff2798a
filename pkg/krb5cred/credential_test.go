package krb5cred

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"
)

func createTestKeytab(t *testing.T, dir string) string {
	t.Helper()

	kt := keytab.New()
	if err := kt.AddEntry("user", "EXAMPLE.COM", "test-password", time.Now(), 1, 17); err != nil {
		t.Fatalf("add keytab entry: %v", err)
	}

	data, err := kt.Marshal()
	if err != nil {
		t.Fatalf("marshal test keytab: %v", err)
	}

	path := filepath.Join(dir, "test.keytab")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write test keytab: %v", err)
	}

	return path
}

func TestLoadKeytabValidFile(t *testing.T) {
	dir := t.TempDir()
	path := createTestKeytab(t, dir)

	kt, err := loadKeytab(path)
	if err != nil {
		t.Fatalf("loadKeytab failed: %v", err)
	}
	if kt == nil {
		t.Fatal("expected non-nil keytab")
	}
}

func TestLoadKeytabNonexistentFile(t *testing.T) {
	_, err := loadKeytab("/nonexistent/path/keytab")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoadKeytabInvalidData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.keytab")
	if err := os.WriteFile(path, []byte("not a keytab"), 0600); err != nil {
		t.Fatalf("write bad keytab: %v", err)
	}

	_, err := loadKeytab(path)
	if err == nil {
		t.Fatal("expected error for invalid keytab data")
	}
}

func TestResolveKeytabPathPrefersConfigured(t *testing.T) {
	t.Setenv("REMCTL_KEYTAB", "/env/keytab")

	if got := resolveKeytabPath("/config/keytab"); got != "/config/keytab" {
		t.Fatalf("expected /config/keytab, got %s", got)
	}
}

func TestResolveKeytabPathEnvFallback(t *testing.T) {
	t.Setenv("REMCTL_KEYTAB", "/env/keytab")

	if got := resolveKeytabPath(""); got != "/env/keytab" {
		t.Fatalf("expected /env/keytab, got %s", got)
	}
}

func TestResolveKeytabPathDefault(t *testing.T) {
	t.Setenv("REMCTL_KEYTAB", "")

	if got := resolveKeytabPath(""); got != "/etc/remctl/client.keytab" {
		t.Fatalf("expected default path, got %s", got)
	}
}

func TestResolveKrb5ConfPathDefault(t *testing.T) {
	t.Setenv("KRB5_CONFIG", "")

	if got := resolveKrb5ConfPath(""); got != "/etc/krb5.conf" {
		t.Fatalf("expected /etc/krb5.conf, got %s", got)
	}
}

func TestLoadRejectsMissingPrincipal(t *testing.T) {
	_, err := Load(Options{})
	if err == nil {
		t.Fatal("expected error for empty principal")
	}
}

func TestLoadRejectsMalformedPrincipal(t *testing.T) {
	_, err := Load(Options{Principal: "no-realm"})
	if err == nil {
		t.Fatal("expected error for principal without @REALM")
	}
}

func TestLoadFailsForMissingKeytab(t *testing.T) {
	_, err := Load(Options{Principal: "user@EXAMPLE.COM", KeytabPath: "/nonexistent/keytab"})
	if err == nil {
		t.Fatal("expected error for nonexistent keytab")
	}
}
