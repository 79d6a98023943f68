package goals

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// mockGoalService is a function-field mock of the goal lifecycle service.
type mockGoalService struct {
	CreateFunc     func(ctx context.Context, userID, text string) (*models.Goal, error)
	CurrentFunc    func(ctx context.Context, userID string) (*models.Goal, error)
	UpdateTextFunc func(ctx context.Context, userID, goalID, text string) (*models.Goal, error)
	CommitFunc     func(ctx context.Context, userID, goalID string) (*models.Goal, error)
	DeleteFunc     func(ctx context.Context, userID, goalID string) error
	remaining      int
}

func (m *mockGoalService) Create(ctx context.Context, userID, text string) (*models.Goal, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, text)
	}
	return &models.Goal{ID: "g-1", UserID: userID, Text: text, Status: models.GoalStatusDraft}, nil
}

func (m *mockGoalService) Current(ctx context.Context, userID string) (*models.Goal, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockGoalService) UpdateText(ctx context.Context, userID, goalID, text string) (*models.Goal, error) {
	if m.UpdateTextFunc != nil {
		return m.UpdateTextFunc(ctx, userID, goalID, text)
	}
	return &models.Goal{ID: goalID, UserID: userID, Text: text, Status: models.GoalStatusDraft}, nil
}

func (m *mockGoalService) ResetEditing(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	return &models.Goal{ID: goalID, UserID: userID, Status: models.GoalStatusDraft}, nil
}

func (m *mockGoalService) Commit(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, userID, goalID)
	}
	return &models.Goal{ID: goalID, UserID: userID, Status: models.GoalStatusCommitted}, nil
}

func (m *mockGoalService) Delete(ctx context.Context, userID, goalID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, goalID)
	}
	return nil
}

func (m *mockGoalService) RemainingEditSeconds(goal *models.Goal) int {
	return m.remaining
}

func setupTestRouter(svc GoalService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandlerWithInterfaces(svc, logger.New("error", "console", "stdout"))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("auth_user", &models.User{ID: "user-1", Subject: "auth0|abc"})
	})
	router.POST("/goals", handler.Create)
	router.GET("/goals/current", handler.Current)
	router.PATCH("/goals/:id/text", handler.UpdateText)
	router.POST("/goals/:id/reset", handler.Reset)
	router.POST("/goals/:id/commit", handler.Commit)
	router.DELETE("/goals/:id", handler.Delete)
	return router
}

func TestCreate_Success(t *testing.T) {
	router := setupTestRouter(&mockGoalService{remaining: 300})

	w := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"text":"Run 5k"}`)
	req, _ := http.NewRequest("POST", "/goals", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Run 5k")
	assert.Contains(t, w.Body.String(), `"remaining_edit_seconds":300`)
}

func TestCreate_MissingText(t *testing.T) {
	router := setupTestRouter(&mockGoalService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/goals", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_ActiveGoalExists(t *testing.T) {
	svc := &mockGoalService{
		CreateFunc: func(ctx context.Context, userID, text string) (*models.Goal, error) {
			return nil, apperr.New(apperr.KindInvalidState, "goals.Create", "an active goal already exists")
		},
	}
	router := setupTestRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/goals", bytes.NewBufferString(`{"text":"Run 5k"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "an active goal already exists")
}

func TestCurrent_NoActiveGoal(t *testing.T) {
	router := setupTestRouter(&mockGoalService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/goals/current", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"goal":null`)
}

func TestCurrent_ActiveGoal(t *testing.T) {
	svc := &mockGoalService{
		CurrentFunc: func(ctx context.Context, userID string) (*models.Goal, error) {
			return &models.Goal{ID: "g-1", UserID: userID, Text: "Run 5k", Status: models.GoalStatusCommitted}, nil
		},
	}
	router := setupTestRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/goals/current", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "committed")
}

func TestUpdateText_NotFound(t *testing.T) {
	svc := &mockGoalService{
		UpdateTextFunc: func(ctx context.Context, userID, goalID, text string) (*models.Goal, error) {
			return nil, apperr.New(apperr.KindNotFound, "goals.UpdateText", "goal not found")
		},
	}
	router := setupTestRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PATCH", "/goals/missing/text", bytes.NewBufferString(`{"text":"New"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommit_Success(t *testing.T) {
	router := setupTestRouter(&mockGoalService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/goals/g-1/commit", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "committed")
}

func TestCommit_AlreadyCommitted(t *testing.T) {
	svc := &mockGoalService{
		CommitFunc: func(ctx context.Context, userID, goalID string) (*models.Goal, error) {
			return nil, apperr.New(apperr.KindInvalidState, "goals.Commit", "only draft goals can be committed")
		},
	}
	router := setupTestRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/goals/g-1/commit", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDelete_Success(t *testing.T) {
	router := setupTestRouter(&mockGoalService{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/goals/g-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDelete_CommittedGoal(t *testing.T) {
	svc := &mockGoalService{
		DeleteFunc: func(ctx context.Context, userID, goalID string) error {
			return apperr.New(apperr.KindInvalidState, "goals.Delete", "only draft goals can be deleted")
		},
	}
	router := setupTestRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/goals/g-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
