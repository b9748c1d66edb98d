package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) Suggest() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func TestSuggestionsHandler_List(t *testing.T) {
	suggester := new(MockSuggester)
	suggester.On("Suggest").Return([]string{"How can I contact you?", "What are your key skills?"})

	w := httptest.NewRecorder()
	NewSuggestionsHandler(suggester).List(w, httptest.NewRequest(http.MethodGet, "/api/suggestions", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"suggestions":["How can I contact you?","What are your key skills?"]}}`, w.Body.String())
	suggester.AssertExpectations(t)
}

func TestSuggestionsHandler_EmptyIsArray(t *testing.T) {
	suggester := new(MockSuggester)
	suggester.On("Suggest").Return(nil)

	w := httptest.NewRecorder()
	NewSuggestionsHandler(suggester).List(w, httptest.NewRequest(http.MethodGet, "/api/suggestions", nil))

	assert.JSONEq(t, `{"data":{"suggestions":[]}}`, w.Body.String())
}
