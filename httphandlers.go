package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ebi-variation/annotation-summaries-rw-neo4j/annotation"
	"github.com/ebi-variation/annotation-summaries-rw-neo4j/forwarder"
	"github.com/ebi-variation/annotation-summaries-rw-neo4j/summaries"

	logger "github.com/Financial-Times/go-logger/v2"
	transactionidutils "github.com/Financial-Times/transactionid-utils-go"
	"github.com/gorilla/mux"
)

type httpHandler struct {
	summariesService summaries.Service
	forwarder        forwarder.QueueForwarder
	originMap        map[string]string
	lifecycleMap     map[string]string
	messageType      string
	log              *logger.UPPLogger
}

// GetSummary returns the stored summary for a variant and lifecycle.
func (hh *httpHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	variantID := vars["variantID"]
	annotationLifecycle := vars["annotationLifecycle"]
	tid := transactionidutils.GetTransactionIDFromRequest(r)

	w.Header().Add("Content-Type", "application/json")

	summary, found, err := hh.summariesService.Read(variantID, tid, annotationLifecycle)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("Error getting annotation summary (%v)", err), http.StatusServiceUnavailable)
		return
	}
	if !found {
		writeJSONError(w, fmt.Sprintf("No annotation summary found for variant with id %s.", variantID), http.StatusNotFound)
		return
	}

	if err := json.NewEncoder(w).Encode(summary); err != nil {
		writeJSONError(w, fmt.Sprintf("Error encoding annotation summary (%v)", err), http.StatusInternalServerError)
	}
}

// PutAnnotation folds a full annotation document into the stored summary for
// a variant and forwards the merged summary when forwarding is enabled.
func (hh *httpHandler) PutAnnotation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	variantID := vars["variantID"]
	annotationLifecycle := vars["annotationLifecycle"]
	tid := transactionidutils.GetTransactionIDFromRequest(r)

	w.Header().Add("Content-Type", "application/json")

	platformVersion, found := hh.lifecycleMap[annotationLifecycle]
	if !found {
		writeJSONError(w, fmt.Sprintf("Annotation lifecycle %s is not configured", annotationLifecycle), http.StatusBadRequest)
		return
	}

	thing, err := hh.summariesService.DecodeJSON(json.NewDecoder(r.Body))
	if err != nil {
		writeJSONError(w, fmt.Sprintf("Error (%v) parsing annotation request", err), http.StatusBadRequest)
		return
	}

	doc, ok := thing.(annotation.Document)
	if !ok {
		writeJSONError(w, "Error parsing annotation request", http.StatusBadRequest)
		return
	}
	if err = doc.Validate(); err != nil {
		writeJSONError(w, fmt.Sprintf("Invalid annotation document (%v)", err), http.StatusBadRequest)
		return
	}

	merged, err := hh.summariesService.Write(variantID, annotationLifecycle, platformVersion, tid, doc)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("Error writing annotation summary (%v)", err), http.StatusServiceUnavailable)
		return
	}
	hh.log.WithMonitoringEvent("SaveNeo4j", tid, hh.messageType).WithField("variantID", variantID).Infof("%s successfully written in Neo4j", hh.messageType)

	if hh.forwarder != nil {
		originSystem := hh.originSystemForLifecycle(annotationLifecycle)
		hh.log.WithTransactionID(tid).WithField("variantID", variantID).Debug("Forwarding merged summary to the next queue")
		if err = hh.forwarder.SendMessage(tid, originSystem, platformVersion, variantID, merged); err != nil {
			writeJSONError(w, fmt.Sprintf("Annotation summary for variant %s saved, but forwarding failed (%v)", variantID, err), http.StatusServiceUnavailable)
			return
		}
	}

	writeJSONMessage(w, fmt.Sprintf("Annotation summary for variant %s updated", variantID), http.StatusOK)
}

// DeleteSummary removes the stored summary for a variant and lifecycle.
func (hh *httpHandler) DeleteSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	variantID := vars["variantID"]
	annotationLifecycle := vars["annotationLifecycle"]
	tid := transactionidutils.GetTransactionIDFromRequest(r)

	found, err := hh.summariesService.Delete(variantID, tid, annotationLifecycle)
	if err != nil {
		w.Header().Add("Content-Type", "application/json")
		writeJSONError(w, fmt.Sprintf("Error deleting annotation summary (%v)", err), http.StatusServiceUnavailable)
		return
	}
	if !found {
		w.Header().Add("Content-Type", "application/json")
		writeJSONError(w, fmt.Sprintf("No annotation summary found for variant with id %s.", variantID), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CountSummaries returns the number of summaries stored for a lifecycle.
func (hh *httpHandler) CountSummaries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	annotationLifecycle := vars["annotationLifecycle"]

	w.Header().Add("Content-Type", "application/json")

	platformVersion, found := hh.lifecycleMap[annotationLifecycle]
	if !found {
		writeJSONError(w, fmt.Sprintf("Annotation lifecycle %s is not configured", annotationLifecycle), http.StatusBadRequest)
		return
	}

	count, err := hh.summariesService.Count(annotationLifecycle, platformVersion)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("Error counting annotation summaries (%v)", err), http.StatusServiceUnavailable)
		return
	}

	if err = json.NewEncoder(w).Encode(count); err != nil {
		writeJSONError(w, fmt.Sprintf("Error encoding count (%v)", err), http.StatusInternalServerError)
	}
}

// originSystemForLifecycle reverses the origin map; forwarded messages carry
// the origin system the lifecycle is configured for.
func (hh *httpHandler) originSystemForLifecycle(annotationLifecycle string) string {
	for originSystem, lifecycle := range hh.originMap {
		if lifecycle == annotationLifecycle {
			return originSystem
		}
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, errorMsg string, statusCode int) {
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, fmt.Sprintf("{\"message\": \"%s\"}", errorMsg))
}

func writeJSONMessage(w http.ResponseWriter, msg string, statusCode int) {
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, fmt.Sprintf("{\"message\": \"%s\"}", msg))
}
