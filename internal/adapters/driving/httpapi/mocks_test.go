package httpapi

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

type mockAskService struct {
	result *domain.AskResult
	err    error
	reqs   []domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	m.reqs = append(m.reqs, req)
	return m.result, m.err
}

type mockRetrievalService struct {
	readyErr error
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, _ string, _ int, _ *domain.Filter,
) ([]domain.RetrievalResult, error) {
	return nil, nil
}

func (m *mockRetrievalService) Ready(_ context.Context) error {
	return m.readyErr
}

type mockIngestService struct {
	result *domain.IngestResult
	err    error
	req    domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.req = req
	return m.result, m.err
}

type mockFeedbackService struct {
	err      error
	received []domain.Feedback
}

func (m *mockFeedbackService) Submit(_ context.Context, fb domain.Feedback) error {
	m.received = append(m.received, fb)
	return m.err
}

type mockDocumentService struct {
	document *domain.DocumentInfo
	err      error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	if m.document == nil {
		return nil, m.err
	}
	return []domain.DocumentInfo{*m.document}, m.err
}

func (m *mockDocumentService) Describe(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	return m.document, m.err
}

type sentMessage struct {
	sender, recipient, body string
}

type mockMessenger struct {
	err  error
	sent []sentMessage
}

func (m *mockMessenger) SendText(_ context.Context, senderID, recipient, body string) error {
	m.sent = append(m.sent, sentMessage{sender: senderID, recipient: recipient, body: body})
	return m.err
}
