// Package domain defines the typed identifiers shared across registries.
// Typed IDs prevent cross-type assignment at compile time: a PersonID can
// never be handed to an operation expecting a Deed.
package domain

import (
	"strconv"
	"strings"

	dErrors "terrier/pkg/domain-errors"
)

// PersonID is the opaque account identifier for a registered person. The
// engine treats it as a stable unique token and imposes no format rules on it
// beyond those enforced here at the trust boundary.
type PersonID string

// Deed is the unique integer identifier for a registered property.
type Deed uint64

// maxPersonIDLen bounds identifier length so a hostile caller cannot grow the
// index keys without bound.
const maxPersonIDLen = 128

// ParsePersonID validates a raw identifier token from a trust boundary.
func ParsePersonID(raw string) (PersonID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "person id must not be empty")
	}
	if len(raw) > maxPersonIDLen {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "person id exceeds %d characters", maxPersonIDLen)
	}
	return PersonID(raw), nil
}

// ParseDeed validates a raw deed number from a trust boundary.
func ParseDeed(raw string) (Deed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "deed must not be empty")
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.Wrapf(err, dErrors.CodeInvalidInput, "deed %q is not a non-negative integer", raw)
	}
	return Deed(n), nil
}

func (p PersonID) String() string { return string(p) }

func (p PersonID) IsZero() bool { return p == "" }

func (d Deed) String() string { return strconv.FormatUint(uint64(d), 10) }
