package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ebi-variation/annotation-summaries-rw-neo4j/annotation"

	logger "github.com/Financial-Times/go-logger/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	testVariantID = "20_60343_G_A"
	testTID       = "tid_httptest"
)

const testAnnotationBody = `{
	"vepVersion": "88",
	"vepCacheVersion": "90",
	"xrefs": [{"id": "rs527639301", "src": "dbSNP"}],
	"consequenceTypes": [{"soAccessions": [1628], "sift": {"score": 0.07}}]
}`

func testHandler(summariesService *mockSummariesService, f *mockForwarder) *httpHandler {
	originMap, lifecycleMap, messageType, err := readConfigMap("summary-config.json")
	if err != nil {
		panic(err)
	}
	hh := &httpHandler{
		summariesService: summariesService,
		originMap:        originMap,
		lifecycleMap:     lifecycleMap,
		messageType:      messageType,
		log:              logger.NewUPPInfoLogger("annotation-summaries-rw"),
	}
	if f != nil {
		hh.forwarder = f
	}
	return hh
}

func testRouter(hh *httpHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/variants/{variantID}/annotation-summary/{annotationLifecycle}", hh.GetSummary).Methods("GET")
	r.HandleFunc("/variants/{variantID}/annotation-summary/{annotationLifecycle}", hh.PutAnnotation).Methods("PUT")
	r.HandleFunc("/variants/{variantID}/annotation-summary/{annotationLifecycle}", hh.DeleteSummary).Methods("DELETE")
	r.HandleFunc("/variants/annotation-summary/{annotationLifecycle}/__count", hh.CountSummaries).Methods("GET")
	return r
}

func newTestRequest(method, url, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	req.Header.Set("X-Request-Id", testTID)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestGetSummary(t *testing.T) {
	assert := assert.New(t)
	summariesService := new(mockSummariesService)
	stored := annotation.SummaryDocument{
		VepVersion:      "88",
		VepCacheVersion: "90",
		Sift:            []float64{0.05, 0.9},
		XrefIds:         []string{"rs1"},
	}
	summariesService.On("Read", testVariantID, testTID, annotationLifecycle).Return(stored, true, nil)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("GET", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, ""))

	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"vepv":"88","cachev":"90","sift":[0.05,0.9],"xrefs":["rs1"]}`, rec.Body.String())
}

func TestGetSummaryNotFound(t *testing.T) {
	summariesService := new(mockSummariesService)
	summariesService.On("Read", testVariantID, testTID, annotationLifecycle).Return(annotation.SummaryDocument{}, false, nil)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("GET", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSummaryServiceError(t *testing.T) {
	summariesService := new(mockSummariesService)
	summariesService.On("Read", testVariantID, testTID, annotationLifecycle).Return(annotation.SummaryDocument{}, false, errors.New("neo4j is down"))

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("GET", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, ""))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPutAnnotationMergesAndForwards(t *testing.T) {
	assert := assert.New(t)
	summariesService := new(mockSummariesService)
	f := new(mockForwarder)

	doc := annotation.Document{
		VepVersion:      "88",
		VepCacheVersion: "90",
		Xrefs:           []annotation.Xref{{ID: "rs527639301", Src: "dbSNP"}},
		ConsequenceTypes: []annotation.ConsequenceType{
			{SoAccessions: []int{1628}, Sift: &annotation.Score{Score: 0.07}},
		},
	}
	merged := annotation.SummaryDocument{
		VepVersion:      "88",
		VepCacheVersion: "90",
		Sift:            []float64{0.07, 0.07},
		SoAccessions:    []int{1628},
		XrefIds:         []string{"rs527639301"},
	}

	summariesService.On("DecodeJSON", mock.Anything).Return(doc, nil)
	summariesService.On("Write", testVariantID, annotationLifecycle, platformVersion, testTID, doc).Return(merged, nil)
	f.On("SendMessage", testTID, "http://cmdb.ebi.ac.uk/systems/vep-pipeline", platformVersion, testVariantID, merged).Return(nil)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, f)).ServeHTTP(rec, newTestRequest("PUT", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, testAnnotationBody))

	assert.Equal(http.StatusOK, rec.Code)
	summariesService.AssertCalled(t, "Write", testVariantID, annotationLifecycle, platformVersion, testTID, doc)
	f.AssertCalled(t, "SendMessage", testTID, "http://cmdb.ebi.ac.uk/systems/vep-pipeline", platformVersion, testVariantID, merged)
}

func TestPutAnnotationUnknownLifecycle(t *testing.T) {
	summariesService := new(mockSummariesService)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("PUT", "/variants/"+testVariantID+"/annotation-summary/annotations-unknown", testAnnotationBody))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	summariesService.AssertNumberOfCalls(t, "Write", 0)
}

func TestPutAnnotationInvalidJSON(t *testing.T) {
	summariesService := new(mockSummariesService)
	summariesService.On("DecodeJSON", mock.Anything).Return(annotation.Document{}, errors.New("invalid character"))

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("PUT", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, "not json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	summariesService.AssertNumberOfCalls(t, "Write", 0)
}

func TestPutAnnotationInvalidDocument(t *testing.T) {
	summariesService := new(mockSummariesService)
	summariesService.On("DecodeJSON", mock.Anything).Return(annotation.Document{VepCacheVersion: "90"}, nil)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("PUT", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, `{"vepCacheVersion":"90"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	summariesService.AssertNumberOfCalls(t, "Write", 0)
}

func TestPutAnnotationWriteFails(t *testing.T) {
	summariesService := new(mockSummariesService)
	doc := annotation.Document{VepVersion: "88", VepCacheVersion: "90"}
	summariesService.On("DecodeJSON", mock.Anything).Return(doc, nil)
	summariesService.On("Write", testVariantID, annotationLifecycle, platformVersion, testTID, doc).Return(annotation.SummaryDocument{}, errors.New("neo4j is down"))

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("PUT", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, `{"vepVersion":"88","vepCacheVersion":"90"}`))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeleteSummary(t *testing.T) {
	summariesService := new(mockSummariesService)
	summariesService.On("Delete", testVariantID, testTID, annotationLifecycle).Return(true, nil)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("DELETE", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, ""))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteSummaryNotFound(t *testing.T) {
	summariesService := new(mockSummariesService)
	summariesService.On("Delete", testVariantID, testTID, annotationLifecycle).Return(false, nil)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("DELETE", "/variants/"+testVariantID+"/annotation-summary/"+annotationLifecycle, ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCountSummaries(t *testing.T) {
	summariesService := new(mockSummariesService)
	summariesService.On("Count", annotationLifecycle, platformVersion).Return(42, nil)

	rec := httptest.NewRecorder()
	testRouter(testHandler(summariesService, nil)).ServeHTTP(rec, newTestRequest("GET", "/variants/annotation-summary/"+annotationLifecycle+"/__count", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42\n", rec.Body.String())
}
