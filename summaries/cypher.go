package summaries

import (
	"encoding/json"
	"errors"
	"fmt"

	cmneo4j "github.com/Financial-Times/cm-neo4j-driver"

	"github.com/ebi-variation/annotation-summaries-rw-neo4j/annotation"
)

// Service reads and writes variant annotation summaries. Write folds a full
// annotation document into the summary already stored for the variant and
// lifecycle (if any) and returns the merged summary, so the stored row is
// always the running aggregate over every annotation seen so far.
type Service interface {
	Write(variantID string, annotationLifecycle string, platformVersion string, tid string, thing interface{}) (annotation.SummaryDocument, error)
	Read(variantID string, tid string, annotationLifecycle string) (thing interface{}, found bool, err error)
	Delete(variantID string, tid string, annotationLifecycle string) (found bool, err error)
	Check() (err error)
	DecodeJSON(*json.Decoder) (thing interface{}, err error)
	Count(annotationLifecycle string, platformVersion string) (int, error)
	Initialise() error
}

// holds the Neo4j-specific information
type service struct {
	driver *cmneo4j.Driver
}

// NewCypherSummariesService instantiates the Neo4j backed summaries service.
func NewCypherSummariesService(driver *cmneo4j.Driver) Service {
	return service{driver: driver}
}

// DecodeJSON decodes a full annotation document, the unit every write folds in
func (s service) DecodeJSON(dec *json.Decoder) (interface{}, error) {
	doc := annotation.Document{}
	err := dec.Decode(&doc)
	return doc, err
}

func (s service) Read(variantID string, tid string, annotationLifecycle string) (thing interface{}, found bool, err error) {
	results := []annotation.SummaryDocument{}
	query := &cmneo4j.Query{
		Cypher: `
			MATCH (v:Variant{variantID:$variantID})-[rel:HAS_ANNOTATION_SUMMARY{lifecycle:$annotationLifecycle}]->(s:AnnotationSummary)
			RETURN
				s.vepv as vepv,
				s.cachev as cachev,
				s.sift as sift,
				s.polyphen as polyphen,
				s.so as so,
				s.xrefs as xrefs`,
		Params: map[string]interface{}{
			"variantID":           variantID,
			"annotationLifecycle": annotationLifecycle,
		},
		Result: &results,
	}
	err = s.driver.Read(query)
	if errors.Is(err, cmneo4j.ErrNoResultsFound) {
		return annotation.SummaryDocument{}, false, nil
	}
	if err != nil {
		return annotation.SummaryDocument{}, false, fmt.Errorf("executing read query in neo4j failed: %w", err)
	}

	return results[0], true, nil
}

// Write folds an annotation document into the stored summary for this variant
// and lifecycle. When a summary is already stored it is extended (ranges
// widened, sets unioned); the stored summary keeps its own version pair.
func (s service) Write(variantID string, annotationLifecycle string, platformVersion string, tid string, thing interface{}) (annotation.SummaryDocument, error) {
	doc, ok := thing.(annotation.Document)
	if !ok {
		return annotation.SummaryDocument{}, errors.New("thing is not of type annotation.Document")
	}
	if variantID == "" {
		return annotation.SummaryDocument{}, errors.New("variant id is required")
	}
	if err := doc.Validate(); err != nil {
		return annotation.SummaryDocument{}, err
	}

	summary, err := annotation.NewSummaryFromAnnotation(&doc)
	if err != nil {
		return annotation.SummaryDocument{}, err
	}

	stored, found, err := s.readSummary(variantID, annotationLifecycle)
	if err != nil {
		return annotation.SummaryDocument{}, err
	}
	if found {
		summary = stored.Concatenate(summary)
	}

	merged := summary.Document()
	query := buildWriteQuery(variantID, annotationLifecycle, platformVersion, merged)
	if err := s.driver.Write(query); err != nil {
		return annotation.SummaryDocument{}, fmt.Errorf("executing write query in neo4j failed: %w", err)
	}
	return merged, nil
}

// Delete removes the summary for this variant and lifecycle. The variant node
// itself is left in place: it may carry summaries for other lifecycles, and
// cleaning up orphaned variants is an external concern.
func (s service) Delete(variantID string, tid string, annotationLifecycle string) (bool, error) {
	query := buildDeleteQuery(variantID, annotationLifecycle, true)

	if err := s.driver.Write(query); err != nil {
		return false, fmt.Errorf("executing delete query in neo4j failed: %w", err)
	}

	stats, err := query.Summary()
	if err != nil {
		return false, fmt.Errorf("running stats on delete query failed: %w", err)
	}

	return stats.Counters().NodesDeleted() > 0, err
}

// Check tests if the service can connect to neo4j by running a simple query
func (s service) Check() error {
	return s.driver.VerifyConnectivity()
}

func (s service) Count(annotationLifecycle string, platformVersion string) (int, error) {
	var results []struct {
		Count int `json:"c"`
	}

	query := &cmneo4j.Query{
		Cypher: `MATCH ()-[rel:HAS_ANNOTATION_SUMMARY{platformVersion:$platformVersion}]->(s:AnnotationSummary)
                WHERE rel.lifecycle = $lifecycle
                OR rel.lifecycle IS NULL
                RETURN count(s) as c`,
		Params: map[string]interface{}{
			"platformVersion": platformVersion,
			"lifecycle":       annotationLifecycle,
		},
		Result: &results,
	}

	err := s.driver.Read(query)
	if errors.Is(err, cmneo4j.ErrNoResultsFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("executing count query in neo4j failed: %w", err)
	}
	return results[0].Count, nil
}

func (s service) Initialise() error {
	err := s.driver.EnsureConstraints(map[string]string{
		"Variant": "variantID",
	})

	return err
}

func (s service) readSummary(variantID string, annotationLifecycle string) (*annotation.Summary, bool, error) {
	thing, found, err := s.Read(variantID, "", annotationLifecycle)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	doc := thing.(annotation.SummaryDocument)
	stored, err := annotation.SummaryFromDocument(doc)
	if err != nil {
		return nil, false, fmt.Errorf("stored summary for variant %s is not valid: %w", variantID, err)
	}
	return stored, true, nil
}

func buildWriteQuery(variantID string, annotationLifecycle string, platformVersion string, doc annotation.SummaryDocument) *cmneo4j.Query {
	props := map[string]interface{}{
		"variantID": variantID,
		"lifecycle": annotationLifecycle,
		"vepv":      doc.VepVersion,
		"cachev":    doc.VepCacheVersion,
		"so":        doc.SoAccessions,
		"xrefs":     doc.XrefIds,
	}
	// absent ranges stay absent: no property is written for a score class
	// that has never been observed
	if len(doc.Sift) == 2 {
		props["sift"] = doc.Sift
	}
	if len(doc.Polyphen) == 2 {
		props["polyphen"] = doc.Polyphen
	}

	return &cmneo4j.Query{
		Cypher: `
                MERGE (v:Variant{variantID:$variantID})
                MERGE (v)-[rel:HAS_ANNOTATION_SUMMARY{lifecycle:$annotationLifecycle}]->(s:AnnotationSummary)
                SET rel.platformVersion=$platformVersion
                SET s=$summaryProps`,
		Params: map[string]interface{}{
			"variantID":           variantID,
			"annotationLifecycle": annotationLifecycle,
			"platformVersion":     platformVersion,
			"summaryProps":        props,
		},
	}
}

func buildDeleteQuery(variantID string, annotationLifecycle string, includeStats bool) *cmneo4j.Query {
	statement := `OPTIONAL MATCH (:Variant{variantID:$variantID})-[rel:HAS_ANNOTATION_SUMMARY{lifecycle:$annotationLifecycle}]->(s:AnnotationSummary)
				  DETACH DELETE s`
	query := &cmneo4j.Query{
		Cypher: statement,
		Params: map[string]interface{}{
			"variantID":           variantID,
			"annotationLifecycle": annotationLifecycle,
		},
		IncludeSummary: includeStats,
	}
	return query
}
