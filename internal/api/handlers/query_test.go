package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nyaya-labs/sahayak/internal/domain"
	"github.com/nyaya-labs/sahayak/internal/service"
)

type MockLegalQueryService struct {
	mock.Mock
}

func (m *MockLegalQueryService) AnswerQuery(ctx context.Context, query string, opts service.QueryOptions) (*domain.StructuredAnswer, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StructuredAnswer), args.Error(1)
}

func newTestAnswer() *domain.StructuredAnswer {
	return &domain.StructuredAnswer{
		Query:  "What is anticipatory bail?",
		Answer: "Anticipatory bail is a direction to release a person on bail before arrest.",
		RelatedCases: []domain.RelatedCase{
			{
				CaseID:       "case-1",
				Title:        "Gurbaksh Singh Sibbia v. State of Punjab",
				Citation:     "(1980) 2 SCC 565",
				Court:        "Supreme Court",
				DecisionDate: time.Date(1980, 4, 9, 0, 0, 0, 0, time.UTC),
			},
		},
		LegalIssues:    []string{"anticipatory bail"},
		FollowUps:      []string{"What conditions can be attached?"},
		ReasoningSteps: []string{"Analyzing query for legal issues and keywords"},
		Processing:     domain.ProcessingInfo{CasesRetrieved: 1, CasesAnalyzed: 1},
	}
}

func TestQueryHandler_Answer_Success(t *testing.T) {
	mockSvc := new(MockLegalQueryService)
	handler := NewQueryHandler(mockSvc)

	mockSvc.On("AnswerQuery", mock.Anything, "What is anticipatory bail?", mock.MatchedBy(func(opts service.QueryOptions) bool {
		return opts.UseAgentic && opts.TopKCases == 0
	})).Return(newTestAnswer(), nil)

	body := `{"query":"What is anticipatory bail?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal-query", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "What is anticipatory bail?", data["query"])
	related := data["related_cases"].([]interface{})
	require.Len(t, related, 1)
	first := related[0].(map[string]interface{})
	assert.Equal(t, "1980-04-09", first["decision_date"])
	mockSvc.AssertExpectations(t)
}

func TestQueryHandler_Answer_DirectPath(t *testing.T) {
	mockSvc := new(MockLegalQueryService)
	handler := NewQueryHandler(mockSvc)

	mockSvc.On("AnswerQuery", mock.Anything, "bail", mock.MatchedBy(func(opts service.QueryOptions) bool {
		return !opts.UseAgentic && opts.TopKCases == 3
	})).Return(newTestAnswer(), nil)

	body := `{"query":"bail","use_agentic":false,"top_k":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal-query", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQueryHandler_Answer_Filters(t *testing.T) {
	mockSvc := new(MockLegalQueryService)
	handler := NewQueryHandler(mockSvc)

	mockSvc.On("AnswerQuery", mock.Anything, "bail", mock.MatchedBy(func(opts service.QueryOptions) bool {
		return opts.Filters.Court == "Supreme Court" &&
			opts.Filters.DateFrom.Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	})).Return(newTestAnswer(), nil)

	body := `{"query":"bail","filters":{"court":"Supreme Court","date_from":"2000-01-01"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal-query", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQueryHandler_Answer_MissingQuery(t *testing.T) {
	mockSvc := new(MockLegalQueryService)
	handler := NewQueryHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal-query", bytes.NewReader([]byte(`{"query":"  "}`)))
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "AnswerQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryHandler_Answer_InvalidJSON(t *testing.T) {
	mockSvc := new(MockLegalQueryService)
	handler := NewQueryHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal-query", bytes.NewReader([]byte(`{invalid`)))
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryHandler_Answer_BadFilterDate(t *testing.T) {
	mockSvc := new(MockLegalQueryService)
	handler := NewQueryHandler(mockSvc)

	body := `{"query":"bail","filters":{"date_from":"01/02/2000"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal-query", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "AnswerQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryHandler_Answer_ProviderUnavailable(t *testing.T) {
	mockSvc := new(MockLegalQueryService)
	handler := NewQueryHandler(mockSvc)

	mockSvc.On("AnswerQuery", mock.Anything, "bail", mock.Anything).
		Return(nil, domain.ErrProviderUnavailable)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal-query", bytes.NewReader([]byte(`{"query":"bail"}`)))
	w := httptest.NewRecorder()

	handler.Answer(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
