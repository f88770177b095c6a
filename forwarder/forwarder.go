package forwarder

import (
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/Financial-Times/kafka-client-go/v3"
	"github.com/google/uuid"

	"github.com/ebi-variation/annotation-summaries-rw-neo4j/annotation"
)

const messageTimestampDateFormat = "2006-01-02T15:04:05.000Z0700"

// QueueForwarder publishes the merged summary of a variant to the next queue
// after a successful write.
type QueueForwarder interface {
	SendMessage(transactionID string, originSystem string, platformVersion string, variantID string, summary annotation.SummaryDocument) error
}

// messageProducer is satisfied by kafka.Producer.
type messageProducer interface {
	SendMessage(message kafka.FTMessage) error
}

// Forwarder forwards merged summaries to a kafka topic wrapped in the
// standard message envelope.
type Forwarder struct {
	Producer    messageProducer
	MessageType string
}

type payload struct {
	VariantID         string                     `json:"variantId"`
	AnnotationSummary annotation.SummaryDocument `json:"annotationSummary"`
	LastModified      string                     `json:"lastModified"`
}

type queueMessage struct {
	Payload      payload `json:"payload"`
	ContentURI   string  `json:"contentUri"`
	LastModified string  `json:"lastModified"`
}

// SendMessage wraps the merged summary in the standard envelope and produces
// it, propagating the transaction id and origin system of the triggering
// write.
func (f *Forwarder) SendMessage(transactionID string, originSystem string, platformVersion string, variantID string, summary annotation.SummaryDocument) error {
	headers := CreateHeaders(transactionID, originSystem, f.MessageType)
	lastModified := headers["Message-Timestamp"]

	body, err := json.Marshal(queueMessage{
		Payload: payload{
			VariantID:         variantID,
			AnnotationSummary: summary,
			LastModified:      lastModified,
		},
		ContentURI:   fmt.Sprintf("http://%s.annotation-summaries-rw-neo4j.svc.ebi.ac.uk/annotation-summaries/%s", platformVersion, variantID),
		LastModified: lastModified,
	})
	if err != nil {
		return err
	}

	return f.Producer.SendMessage(kafka.NewFTMessage(headers, string(body)))
}

// CreateHeaders returns the standard headers for a forwarded message, with a
// fresh v4 message id and the current timestamp.
func CreateHeaders(transactionID string, originSystem string, messageType string) map[string]string {
	return map[string]string{
		"X-Request-Id":      transactionID,
		"Message-Timestamp": time.Now().Format(messageTimestampDateFormat),
		"Message-Id":        uuid.New().String(),
		"Message-Type":      messageType,
		"Origin-System-Id":  originSystem,
		"Content-Type":      "application/json",
	}
}
