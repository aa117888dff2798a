// Package krb5cred loads a Kerberos initiator credential from a keytab for
// use as the remctl client's GSSAPI credential, adapted from the keytab and
// krb5.conf loading conventions used elsewhere in this codebase's ambient
// stack.
package krb5cred
