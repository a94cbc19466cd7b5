package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainStatement prefixes statement fingerprints.
// Version suffix enables future algorithm migration.
const DomainStatement = "medoo/statement/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a content-addressed identifier for a compiled
// statement. Two statements share a fingerprint only if both the SQL text
// and the ordered bind values are identical.
func Fingerprint(sql string, params []Value) (string, error) {
	if params == nil {
		params = []Value{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"sql":    sql,
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}

// MustFingerprint is Fingerprint for tests. Panics on error.
func MustFingerprint(sql string, params []Value) string {
	id, err := Fingerprint(sql, params)
	if err != nil {
		panic(err)
	}
	return id
}
