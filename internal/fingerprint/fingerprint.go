// Package fingerprint detects changes in settings groups.
//
// A fingerprint is the SHA-256 digest of a group's canonical serialization:
// field names sorted, each value rendered in its shortest round-trip form.
// Equal groups always produce equal fingerprints, and the encoding is stable
// across process runs, so a recorded fingerprint can be compared against a
// fresh one at any later time.
//
// The package is stateless. Detect reports whether a group differs from its
// last recorded fingerprint; persisting the new fingerprint is the caller's
// job.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/emunsing/webscenarios/internal/settings"
)

// Absent is the fingerprint of a group that has never been computed.
const Absent = ""

// Sum returns the canonical digest of a settings group's field map.
// The result depends only on the field values, never on map iteration order.
func Sum(fields map[string]float64) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(fields[name], 'g', -1, 64))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SumDesign fingerprints a design group.
func SumDesign(d settings.Design) string {
	return Sum(d.Fields())
}

// SumFinancial fingerprints a financial group.
func SumFinancial(f settings.Financial) string {
	return Sum(f.Fields())
}

// Detect compares a group against its last recorded fingerprint and returns
// whether it changed along with the fresh fingerprint. An absent last
// fingerprint never equals a fresh sum, so the first detection of a group
// always reports a change.
func Detect(fields map[string]float64, last string) (changed bool, next string) {
	next = Sum(fields)
	return next != last, next
}
