package annotation

// Document is the wire form of a full VEP annotation for one variant, as
// received over HTTP or from the annotation events topic.
type Document struct {
	VepVersion       string            `json:"vepVersion"`
	VepCacheVersion  string            `json:"vepCacheVersion"`
	Xrefs            []Xref            `json:"xrefs,omitempty"`
	ConsequenceTypes []ConsequenceType `json:"consequenceTypes,omitempty"`
}

// Xref links the variant to an entry in an external database, e.g. a dbSNP
// rs identifier.
type Xref struct {
	ID  string `json:"id"`
	Src string `json:"src,omitempty"`
}

// ConsequenceType is one predicted consequence of the variant.
type ConsequenceType struct {
	SoAccessions []int  `json:"soAccessions,omitempty"`
	Sift         *Score `json:"sift,omitempty"`
	Polyphen     *Score `json:"polyphen,omitempty"`
}

// Score is a single deleteriousness prediction.
type Score struct {
	Score       float64 `json:"score"`
	Description string  `json:"description,omitempty"`
}

// AnnotationVersions implements Annotated.
func (d *Document) AnnotationVersions() (string, string) {
	return d.VepVersion, d.VepCacheVersion
}

// AnnotationXrefs implements Annotated.
func (d *Document) AnnotationXrefs() []string {
	ids := make([]string, 0, len(d.Xrefs))
	for _, xref := range d.Xrefs {
		ids = append(ids, xref.ID)
	}
	return ids
}

// AnnotationConsequences implements Annotated.
func (d *Document) AnnotationConsequences() []Consequence {
	consequences := make([]Consequence, 0, len(d.ConsequenceTypes))
	for _, ct := range d.ConsequenceTypes {
		consequence := Consequence{SoAccessions: ct.SoAccessions}
		if ct.Sift != nil {
			score := ct.Sift.Score
			consequence.Sift = &score
		}
		if ct.Polyphen != nil {
			score := ct.Polyphen.Score
			consequence.Polyphen = &score
		}
		consequences = append(consequences, consequence)
	}
	return consequences
}

// SummaryDocument is the serialized form of a Summary. Field names follow the
// stored summary subdocument: vepv, cachev, sift, polyphen, so, xrefs. Ranges
// are two-element ordered slices, minimum first; an absent range is an empty
// slice, never (0, 0).
type SummaryDocument struct {
	VepVersion      string    `json:"vepv"`
	VepCacheVersion string    `json:"cachev"`
	Sift            []float64 `json:"sift,omitempty"`
	Polyphen        []float64 `json:"polyphen,omitempty"`
	SoAccessions    []int     `json:"so,omitempty"`
	XrefIds         []string  `json:"xrefs,omitempty"`
}

// Document returns the serialized form of the summary.
func (s *Summary) Document() SummaryDocument {
	doc := SummaryDocument{
		VepVersion:      s.vepVersion,
		VepCacheVersion: s.vepCacheVersion,
		SoAccessions:    s.SoAccessions(),
		XrefIds:         s.XrefIds(),
	}
	if s.sift != nil {
		doc.Sift = []float64{s.sift.Min, s.sift.Max}
	}
	if s.polyphen != nil {
		doc.Polyphen = []float64{s.polyphen.Min, s.polyphen.Max}
	}
	return doc
}

// SummaryFromDocument rebuilds a Summary from its serialized form, going
// through the validating constructor and the regular folds so every rebuilt
// summary satisfies the same invariants as a freshly aggregated one.
func SummaryFromDocument(doc SummaryDocument) (*Summary, error) {
	s, err := NewSummary(doc.VepVersion, doc.VepCacheVersion)
	if err != nil {
		return nil, err
	}
	for _, v := range doc.Sift {
		s.sift = extendRange(s.sift, v)
	}
	for _, v := range doc.Polyphen {
		s.polyphen = extendRange(s.polyphen, v)
	}
	for _, so := range doc.SoAccessions {
		s.soAccessions[so] = struct{}{}
	}
	for _, id := range doc.XrefIds {
		s.xrefIds[id] = struct{}{}
	}
	return s, nil
}
