package summaries

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebi-variation/annotation-summaries-rw-neo4j/annotation"
)

func TestDecodeJSON(t *testing.T) {
	assert := assert.New(t)

	body := `{
		"vepVersion": "88",
		"vepCacheVersion": "90",
		"xrefs": [{"id": "rs527639301", "src": "dbSNP"}],
		"consequenceTypes": [{"soAccessions": [1628], "sift": {"score": 0.07}}]
	}`

	thing, err := service{}.DecodeJSON(json.NewDecoder(strings.NewReader(body)))
	require.NoError(t, err)

	doc, ok := thing.(annotation.Document)
	require.True(t, ok)
	assert.Equal("88", doc.VepVersion)
	assert.Equal("90", doc.VepCacheVersion)
	require.Len(t, doc.Xrefs, 1)
	assert.Equal("rs527639301", doc.Xrefs[0].ID)
}

func TestDecodeJSONInvalidBody(t *testing.T) {
	_, err := service{}.DecodeJSON(json.NewDecoder(strings.NewReader("not json")))
	assert.Error(t, err)
}

func TestBuildWriteQuerySetsAllSummaryProperties(t *testing.T) {
	assert := assert.New(t)

	doc := annotation.SummaryDocument{
		VepVersion:      "88",
		VepCacheVersion: "90",
		Sift:            []float64{0.07, 0.2},
		Polyphen:        []float64{0.91, 0.91},
		SoAccessions:    []int{1628, 1632},
		XrefIds:         []string{"rs527639301"},
	}

	query := buildWriteQuery("20_60343_G_A", "annotations-vep", "vep", doc)

	assert.Equal("20_60343_G_A", query.Params["variantID"])
	assert.Equal("annotations-vep", query.Params["annotationLifecycle"])
	assert.Equal("vep", query.Params["platformVersion"])

	props, ok := query.Params["summaryProps"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal("20_60343_G_A", props["variantID"])
	assert.Equal("annotations-vep", props["lifecycle"])
	assert.Equal("88", props["vepv"])
	assert.Equal("90", props["cachev"])
	assert.Equal([]float64{0.07, 0.2}, props["sift"])
	assert.Equal([]float64{0.91, 0.91}, props["polyphen"])
	assert.Equal([]int{1628, 1632}, props["so"])
	assert.Equal([]string{"rs527639301"}, props["xrefs"])
}

func TestBuildWriteQueryOmitsAbsentRanges(t *testing.T) {
	doc := annotation.SummaryDocument{
		VepVersion:      "88",
		VepCacheVersion: "90",
		SoAccessions:    []int{},
		XrefIds:         []string{"rs1"},
	}

	query := buildWriteQuery("20_60343_G_A", "annotations-vep", "vep", doc)

	props, ok := query.Params["summaryProps"].(map[string]interface{})
	require.True(t, ok)
	_, siftSet := props["sift"]
	assert.False(t, siftSet, "absent sift range must not be stored")
	_, polyphenSet := props["polyphen"]
	assert.False(t, polyphenSet, "absent polyphen range must not be stored")
}

func TestBuildDeleteQuery(t *testing.T) {
	assert := assert.New(t)

	query := buildDeleteQuery("20_60343_G_A", "annotations-vep", true)

	assert.Equal("20_60343_G_A", query.Params["variantID"])
	assert.Equal("annotations-vep", query.Params["annotationLifecycle"])
	assert.True(query.IncludeSummary)
	assert.Contains(query.Cypher, "DETACH DELETE")
}
