package typesys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix allows
// the encoding to change without colliding with old IDs.
const (
	DomainSchema = "rae/schema/v1"
	DomainQuery  = "rae/query/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaID returns the content-addressed identity of t. Structurally equal
// types have equal IDs, except that Table labels participate.
func SchemaID(t Type) (string, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("SchemaID: %w", err)
	}
	return HashWithDomain(DomainSchema, canonical), nil
}

// MustSchemaID is like SchemaID but panics on error.
func MustSchemaID(t Type) string {
	id, err := SchemaID(t)
	if err != nil {
		panic(err)
	}
	return id
}
