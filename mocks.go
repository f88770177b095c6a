package main

import (
	"encoding/json"

	kafka "github.com/Financial-Times/kafka-client-go/v3"

	"github.com/ebi-variation/annotation-summaries-rw-neo4j/annotation"
	"github.com/stretchr/testify/mock"
)

type mockForwarder struct {
	mock.Mock
}

func (mf *mockForwarder) SendMessage(transactionID string, originSystem string, platformVersion string, variantID string, summary annotation.SummaryDocument) error {
	args := mf.Called(transactionID, originSystem, platformVersion, variantID, summary)
	return args.Error(0)
}

type mockSummariesService struct {
	mock.Mock
}

func (ss *mockSummariesService) Write(variantID string, annotationLifecycle string, platformVersion string, tid string, thing interface{}) (annotation.SummaryDocument, error) {
	args := ss.Called(variantID, annotationLifecycle, platformVersion, tid, thing)
	return args.Get(0).(annotation.SummaryDocument), args.Error(1)
}
func (ss *mockSummariesService) Read(variantID string, tid string, annotationLifecycle string) (thing interface{}, found bool, err error) {
	args := ss.Called(variantID, tid, annotationLifecycle)
	return args.Get(0), args.Bool(1), args.Error(2)
}
func (ss *mockSummariesService) Delete(variantID string, tid string, annotationLifecycle string) (found bool, err error) {
	args := ss.Called(variantID, tid, annotationLifecycle)
	return args.Bool(0), args.Error(1)
}
func (ss *mockSummariesService) Check() (err error) {
	args := ss.Called()
	return args.Error(0)
}
func (ss *mockSummariesService) DecodeJSON(decoder *json.Decoder) (thing interface{}, err error) {
	args := ss.Called(decoder)
	return args.Get(0), args.Error(1)
}
func (ss *mockSummariesService) Count(annotationLifecycle string, platformVersion string) (int, error) {
	args := ss.Called(annotationLifecycle, platformVersion)
	return args.Int(0), args.Error(1)
}
func (ss *mockSummariesService) Initialise() error {
	args := ss.Called()
	return args.Error(0)
}

type mockConsumer struct {
	message kafka.FTMessage
	err     error
}

func (mc mockConsumer) Start(messageHandler func(message kafka.FTMessage)) {
	messageHandler(mc.message)
}

func (mc mockConsumer) Close() error {
	return mc.err
}

func (mc mockConsumer) ConnectivityCheck() error {
	return mc.err
}

func (mc mockConsumer) MonitorCheck() error {
	return mc.err
}
