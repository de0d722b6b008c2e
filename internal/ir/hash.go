package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainEntry = "combomirror/entry/v1"
	DomainValue = "combomirror/value/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryDigest identifies the content of one table entry. Two writes of an
// equal value under the same (table, key) produce the same digest.
func EntryDigest(table, key string, value IRValue) (string, error) {
	canonical, err := MarshalCanonical(IRObject{
		"table": IRString(table),
		"key":   IRString(key),
		"value": orNull(value),
	})
	if err != nil {
		return "", fmt.Errorf("EntryDigest: %w", err)
	}
	return hashWithDomain(DomainEntry, canonical), nil
}

// ValueDigest identifies a value independent of where it is stored.
func ValueDigest(value IRValue) (string, error) {
	canonical, err := MarshalCanonical(orNull(value))
	if err != nil {
		return "", fmt.Errorf("ValueDigest: %w", err)
	}
	return hashWithDomain(DomainValue, canonical), nil
}

func orNull(v IRValue) IRValue {
	if v == nil {
		return IRNull{}
	}
	return v
}
