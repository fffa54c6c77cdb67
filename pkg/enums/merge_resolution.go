package enums

import "fmt"

// MergeResolution is the per-product decision a buyer takes when a locally
// built basket collides with an order already on file for the same pickup day.
type MergeResolution string

const (
	// MergeResolutionUndecided is the initial state of every detected
	// conflict. Confirming a merge with undecided conflicts keeps the
	// existing quantities.
	MergeResolutionUndecided    MergeResolution = "undecided"
	MergeResolutionAdd          MergeResolution = "add"
	MergeResolutionKeepExisting MergeResolution = "keep_existing"
	MergeResolutionUseNew       MergeResolution = "use_new"
)

var validMergeResolutions = []MergeResolution{
	MergeResolutionUndecided,
	MergeResolutionAdd,
	MergeResolutionKeepExisting,
	MergeResolutionUseNew,
}

// String implements fmt.Stringer.
func (r MergeResolution) String() string {
	return string(r)
}

// IsValid reports whether the value is a known MergeResolution.
func (r MergeResolution) IsValid() bool {
	for _, candidate := range validMergeResolutions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseMergeResolution converts raw input into a MergeResolution.
func ParseMergeResolution(value string) (MergeResolution, error) {
	for _, candidate := range validMergeResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merge resolution %q", value)
}
