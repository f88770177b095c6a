package annotation

import (
	"fmt"
	"strings"
)

// ValidationError is thrown when an annotation document is not valid because
// mandatory information is missing or a score is outside its domain.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string {
	return v.Msg
}

// Validate checks the document carries everything needed to build a summary
// from it: a non-blank version pair, an id on every xref, and sift/polyphen
// scores within [0, 1].
func (d *Document) Validate() error {
	if strings.TrimSpace(d.VepVersion) == "" {
		return ValidationError{"vepVersion is mandatory"}
	}
	if strings.TrimSpace(d.VepCacheVersion) == "" {
		return ValidationError{"vepCacheVersion is mandatory"}
	}
	for _, xref := range d.Xrefs {
		if strings.TrimSpace(xref.ID) == "" {
			return ValidationError{fmt.Sprintf("xref id missing for xref %+v", xref)}
		}
	}
	for _, ct := range d.ConsequenceTypes {
		if err := validateScore("sift", ct.Sift); err != nil {
			return err
		}
		if err := validateScore("polyphen", ct.Polyphen); err != nil {
			return err
		}
	}
	return nil
}

func validateScore(name string, score *Score) error {
	if score == nil {
		return nil
	}
	if score.Score < 0 || score.Score > 1 {
		return ValidationError{fmt.Sprintf("%s score %v is outside [0,1]", name, score.Score)}
	}
	return nil
}
