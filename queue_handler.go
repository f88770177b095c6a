package main

import (
	"encoding/json"

	kafka "github.com/Financial-Times/kafka-client-go/v3"

	"github.com/ebi-variation/annotation-summaries-rw-neo4j/annotation"
	"github.com/ebi-variation/annotation-summaries-rw-neo4j/forwarder"
	"github.com/ebi-variation/annotation-summaries-rw-neo4j/summaries"

	logger "github.com/Financial-Times/go-logger/v2"
	transactionidutils "github.com/Financial-Times/transactionid-utils-go"

	"github.com/pkg/errors"
)

type queueMessage struct {
	VariantID  string              `json:"variantId"`
	Annotation annotation.Document `json:"annotation"`
}

type kafkaConsumer interface {
	Start(func(message kafka.FTMessage))
	Close() error
	MonitorCheck() error
	ConnectivityCheck() error
}

type queueHandler struct {
	summariesService summaries.Service
	consumer         kafkaConsumer
	forwarder        forwarder.QueueForwarder
	originMap        map[string]string
	lifecycleMap     map[string]string
	messageType      string
	log              *logger.UPPLogger
}

// Ingest consumes annotation events and folds each one into the summary
// stored for its variant. The merged summary, not the incoming annotation,
// is what gets forwarded.
func (qh *queueHandler) Ingest() {
	qh.consumer.Start(func(message kafka.FTMessage) {
		tid, found := message.Headers[transactionidutils.TransactionIDHeader]
		if !found {
			qh.log.Error("Missing transaction id from message")
			return
		}

		originSystem, found := message.Headers["Origin-System-Id"]
		if !found {
			qh.log.Error("Missing Origin-System-Id header from message")
			return
		}

		lifecycle, platformVersion, err := qh.getSourceFromHeader(originSystem)
		if err != nil {
			qh.log.WithError(err).Error("Could not get source from header")
			return
		}

		annMsg := new(queueMessage)
		err = json.Unmarshal([]byte(message.Body), &annMsg)
		if err != nil {
			qh.log.WithTransactionID(tid).Error("Cannot process received message", tid)
			return
		}

		if err = annMsg.Annotation.Validate(); err != nil {
			qh.log.WithTransactionID(tid).WithError(err).Error("Received annotation document is not valid")
			return
		}

		merged, err := qh.summariesService.Write(annMsg.VariantID, lifecycle, platformVersion, tid, annMsg.Annotation)
		if err != nil {
			qh.log.WithMonitoringEvent("SaveNeo4j", tid, qh.messageType).WithField("variantID", annMsg.VariantID).WithError(err).Error("Cannot write to Neo4j")
			return
		}

		qh.log.WithMonitoringEvent("SaveNeo4j", tid, qh.messageType).WithField("variantID", annMsg.VariantID).Infof("%s successfully written in Neo4j", qh.messageType)

		//forward the merged summary to the next queue
		if qh.forwarder != nil {
			qh.log.WithTransactionID(tid).WithField("variantID", annMsg.VariantID).Debug("Forwarding merged summary to the next queue")
			err := qh.forwarder.SendMessage(tid, originSystem, platformVersion, annMsg.VariantID, merged)
			if err != nil {
				qh.log.WithError(err).WithField("variantID", annMsg.VariantID).WithTransactionID(tid).Error("Could not forward a message to kafka")
				return
			}
			return
		}
	})
}

func (qh *queueHandler) getSourceFromHeader(originSystem string) (string, string, error) {
	annotationLifecycle, found := qh.originMap[originSystem]
	if !found {
		return "", "", errors.Errorf("Annotation lifecycle not found for origin system id: %s", originSystem)
	}

	platformVersion, found := qh.lifecycleMap[annotationLifecycle]
	if !found {
		return "", "", errors.Errorf("Platform version not found for origin system id: %s and annotation lifecycle: %s", originSystem, annotationLifecycle)
	}
	return annotationLifecycle, platformVersion, nil
}
