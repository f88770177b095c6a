package annotation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func docWithSift(score float64) *Document {
	return &Document{
		VepVersion:      "88",
		VepCacheVersion: "90",
		ConsequenceTypes: []ConsequenceType{
			{Sift: &Score{Score: score}},
		},
	}
}

func docWithXrefs(ids ...string) *Document {
	doc := &Document{VepVersion: "88", VepCacheVersion: "90"}
	for _, id := range ids {
		doc.Xrefs = append(doc.Xrefs, Xref{ID: id})
	}
	return doc
}

func summaryWithXrefs(t *testing.T, ids ...string) *Summary {
	t.Helper()
	s, err := NewSummaryFromAnnotation(docWithXrefs(ids...))
	require.NoError(t, err)
	return s
}

func summaryFromDoc(t *testing.T, doc *Document) *Summary {
	t.Helper()
	s, err := NewSummaryFromAnnotation(doc)
	require.NoError(t, err)
	return s
}
