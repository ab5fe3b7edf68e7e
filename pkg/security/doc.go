// Package security loads and inspects the mTLS client certificate
// every scheduler component (store client, broker client, admin API)
// presents for authentication. Certificate issuance is out of scope:
// client certificates are provisioned externally and mounted read-only.
package security
