// In file: internal/version/version.go

// Package version centralizes the versioning of the assistant's logical components.
//
// Answers depend on more than the binary: the prompt text and the extraction
// schemas change model behaviour too. Their versions are reported by /version
// and stamped on query fingerprints so log lines can be traced back to the
// exact prompt revision that produced them.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComponentVersions holds the version strings for the parts of the application
// that are not captured by the build version.
// Manually increment a version here before you deploy a change to that component.
var ComponentVersions = struct {
	// Prompts covers every system and user prompt template in internal/assistant.
	Prompts string `json:"prompts"`

	// Schemas covers the record_sub_queries and record_parameters function schemas.
	Schemas string `json:"schemas"`
}{
	Prompts: "v2.0",
	Schemas: "v1.0",
}

// Tag is a compact string for the current component versions, e.g. "pv2.0_sv1.0".
func Tag() string {
	return fmt.Sprintf("pv%s_sv%s", ComponentVersions.Prompts, ComponentVersions.Schemas)
}

// Fingerprint identifies a query under the current component versions.
// Queries are normalised for case and surrounding whitespace before hashing.
//
// Example output: "query:a1b2c3d4e5f60718:pv2.0_sv1.0"
func Fingerprint(prefix, query string) string {
	hasher := sha256.New()
	hasher.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	queryHash := hex.EncodeToString(hasher.Sum(nil))[:16]

	return fmt.Sprintf("%s:%s:%s", prefix, queryHash, Tag())
}
