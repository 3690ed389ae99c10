package mcp

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	result *domain.AskResult
	err    error
	req    domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	m.req = req
	return m.result, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievalResult
	err     error
	k       int
	filter  *domain.Filter
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ string,
	k int,
	filter *domain.Filter,
) ([]domain.RetrievalResult, error) {
	m.k = k
	m.filter = filter
	return m.results, m.err
}

func (m *mockRetrievalService) Ready(_ context.Context) error {
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentInfo
	document  *domain.DocumentInfo
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Describe(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	return m.document, m.err
}
