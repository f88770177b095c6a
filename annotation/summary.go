package annotation

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a summary is constructed with missing
// mandatory fields.
var ErrInvalidArgument = errors.New("invalid argument")

// ScoreRange is the compacted (min, max) pair kept for one score class. It
// carries the full extremal information needed for range-predicate queries
// without retaining every observed value.
type ScoreRange struct {
	Min float64
	Max float64
}

// Annotated is the view of a raw VEP annotation record that a summary folds
// over. The summary only reads through it, so callers stay free to carry any
// richer document shape underneath.
type Annotated interface {
	AnnotationVersions() (vepVersion, vepCacheVersion string)
	AnnotationXrefs() []string
	AnnotationConsequences() []Consequence
}

// Consequence is a single consequence-type prediction: optional sift and
// polyphen scores plus the sequence-ontology accessions it maps to.
type Consequence struct {
	Sift         *float64
	Polyphen     *float64
	SoAccessions []int
}

// Summary is the lite version of a genomic variant annotation generated with
// Ensembl VEP, compacted for indexing purposes: the version pair of the
// annotating tool, the (min, max) range of every sift and polyphen score
// observed, and the union of SO accessions and xref ids.
//
// A Summary is immutable once constructed. Concatenate and
// ConcatenateAnnotation return fresh instances and leave their operands
// unchanged, so summaries can be merged incrementally and shared across
// goroutines without locking.
type Summary struct {
	vepVersion      string
	vepCacheVersion string
	sift            *ScoreRange
	polyphen        *ScoreRange
	soAccessions    map[int]struct{}
	xrefIds         map[string]struct{}
}

// NewSummary builds an empty summary for the given VEP version pair. Both
// values are mandatory; a blank value fails with ErrInvalidArgument naming
// the offending field.
func NewSummary(vepVersion, vepCacheVersion string) (*Summary, error) {
	if strings.TrimSpace(vepVersion) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "vepVersion must not be blank")
	}
	if strings.TrimSpace(vepCacheVersion) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "vepCacheVersion must not be blank")
	}
	return &Summary{
		vepVersion:      vepVersion,
		vepCacheVersion: vepCacheVersion,
		soAccessions:    map[int]struct{}{},
		xrefIds:         map[string]struct{}{},
	}, nil
}

// NewSummaryFromAnnotation folds a whole annotation record into a fresh
// summary. The record's version pair is validated the same way as in
// NewSummary.
func NewSummaryFromAnnotation(a Annotated) (*Summary, error) {
	vepVersion, vepCacheVersion := a.AnnotationVersions()
	s, err := NewSummary(vepVersion, vepCacheVersion)
	if err != nil {
		return nil, err
	}
	s.foldAnnotation(a)
	return s, nil
}

// Concatenate merges another summary into a copy of this one and returns the
// copy. Ranges are extended to cover both operands and sets are unioned; both
// operands are left unchanged. The version pair is taken from the receiver
// and is not compared against the operand's.
func (s *Summary) Concatenate(other *Summary) *Summary {
	merged := s.copy()
	merged.foldSummary(other)
	return merged
}

// ConcatenateAnnotation folds a raw annotation record into a copy of this
// summary and returns the copy, leaving the receiver unchanged.
func (s *Summary) ConcatenateAnnotation(a Annotated) *Summary {
	merged := s.copy()
	merged.foldAnnotation(a)
	return merged
}

// VepVersion returns the version of the VEP release that produced the folded
// annotations.
func (s *Summary) VepVersion() string {
	return s.vepVersion
}

// VepCacheVersion returns the version of the VEP cache the annotations were
// generated against.
func (s *Summary) VepCacheVersion() string {
	return s.vepCacheVersion
}

// SiftRange returns the compacted sift score range. The second return is
// false when no sift score has been observed; absence of scores is not the
// same as a (0, 0) range.
func (s *Summary) SiftRange() (ScoreRange, bool) {
	if s.sift == nil {
		return ScoreRange{}, false
	}
	return *s.sift, true
}

// PolyphenRange returns the compacted polyphen score range, if any score has
// been observed.
func (s *Summary) PolyphenRange() (ScoreRange, bool) {
	if s.polyphen == nil {
		return ScoreRange{}, false
	}
	return *s.polyphen, true
}

// SoAccessions returns a sorted copy of the observed SO accession set.
func (s *Summary) SoAccessions() []int {
	accessions := make([]int, 0, len(s.soAccessions))
	for so := range s.soAccessions {
		accessions = append(accessions, so)
	}
	sort.Ints(accessions)
	return accessions
}

// XrefIds returns a sorted copy of the observed xref identifier set.
func (s *Summary) XrefIds() []string {
	ids := make([]string, 0, len(s.xrefIds))
	for id := range s.xrefIds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// copy clones the summary into freshly owned storage so folds on the clone
// can never reach back into the original.
func (s *Summary) copy() *Summary {
	clone := &Summary{
		vepVersion:      s.vepVersion,
		vepCacheVersion: s.vepCacheVersion,
		soAccessions:    make(map[int]struct{}, len(s.soAccessions)),
		xrefIds:         make(map[string]struct{}, len(s.xrefIds)),
	}
	if s.sift != nil {
		clone.sift = &ScoreRange{Min: s.sift.Min, Max: s.sift.Max}
	}
	if s.polyphen != nil {
		clone.polyphen = &ScoreRange{Min: s.polyphen.Min, Max: s.polyphen.Max}
	}
	for so := range s.soAccessions {
		clone.soAccessions[so] = struct{}{}
	}
	for id := range s.xrefIds {
		clone.xrefIds[id] = struct{}{}
	}
	return clone
}

func (s *Summary) foldAnnotation(a Annotated) {
	for _, id := range a.AnnotationXrefs() {
		s.xrefIds[id] = struct{}{}
	}
	for _, consequence := range a.AnnotationConsequences() {
		if consequence.Sift != nil {
			s.sift = extendRange(s.sift, *consequence.Sift)
		}
		if consequence.Polyphen != nil {
			s.polyphen = extendRange(s.polyphen, *consequence.Polyphen)
		}
		for _, so := range consequence.SoAccessions {
			s.soAccessions[so] = struct{}{}
		}
	}
}

func (s *Summary) foldSummary(other *Summary) {
	if other.sift != nil {
		s.sift = extendRange(extendRange(s.sift, other.sift.Min), other.sift.Max)
	}
	if other.polyphen != nil {
		s.polyphen = extendRange(extendRange(s.polyphen, other.polyphen.Min), other.polyphen.Max)
	}
	for so := range other.soAccessions {
		s.soAccessions[so] = struct{}{}
	}
	for id := range other.xrefIds {
		s.xrefIds[id] = struct{}{}
	}
}

// extendRange keeps the running minimum and maximum. A nil range acts as the
// identity: the first score observed becomes (v, v). Scores already inside
// the range leave it untouched, so the fold is idempotent, commutative and
// associative regardless of the order scores arrive in.
func extendRange(r *ScoreRange, v float64) *ScoreRange {
	switch {
	case r == nil:
		return &ScoreRange{Min: v, Max: v}
	case v < r.Min:
		return &ScoreRange{Min: v, Max: r.Max}
	case v > r.Max:
		return &ScoreRange{Min: r.Min, Max: v}
	default:
		return r
	}
}
