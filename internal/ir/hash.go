package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed keys.
// Version suffix enables future algorithm migration.
const (
	DomainTemplate = "sexpsql/template/v" + EncodingVersion
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, parts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TemplateKey computes the cache key for compiling e under typeMap.
// Structurally equal (typeMap, e) pairs always produce the same key.
func TemplateKey(typeMap map[string]string, e Expr) (string, error) {
	types, err := MarshalCanonicalMap(typeMap)
	if err != nil {
		return "", fmt.Errorf("TemplateKey: failed to marshal type map: %w", err)
	}
	expr, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("TemplateKey: failed to marshal expression: %w", err)
	}
	return hashWithDomain(DomainTemplate, types, expr), nil
}

// MustTemplateKey is like TemplateKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTemplateKey(typeMap map[string]string, e Expr) string {
	key, err := TemplateKey(typeMap, e)
	if err != nil {
		panic(err)
	}
	return key
}
