package goals

import (
	"context"
	"testing"
	"time"

	"github.com/dailyone-app/dailyone-backend/internal/config"
	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// mockGoalRepository is a function-field mock for the goal repository.
type mockGoalRepository struct {
	CreateFunc                   func(goal *models.Goal) error
	GetByIDFunc                  func(id string) (*models.Goal, error)
	GetActiveByUserFunc          func(userID string) (*models.Goal, error)
	UpdateTextIfDraftFunc        func(id, text string, committedAt time.Time) (*models.Goal, error)
	ClearCommitWindowIfDraftFunc func(id string) (*models.Goal, error)
	CommitIfDraftFunc            func(id string, lockedAt time.Time) (*models.Goal, error)
	DeleteIfDraftFunc            func(id string) error
}

func (m *mockGoalRepository) Create(goal *models.Goal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(goal)
	}
	return nil
}

func (m *mockGoalRepository) GetByID(id string) (*models.Goal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockGoalRepository) GetActiveByUser(userID string) (*models.Goal, error) {
	if m.GetActiveByUserFunc != nil {
		return m.GetActiveByUserFunc(userID)
	}
	return nil, nil
}

func (m *mockGoalRepository) UpdateTextIfDraft(id, text string, committedAt time.Time) (*models.Goal, error) {
	if m.UpdateTextIfDraftFunc != nil {
		return m.UpdateTextIfDraftFunc(id, text, committedAt)
	}
	return nil, repository.ErrInvalidTransition
}

func (m *mockGoalRepository) ClearCommitWindowIfDraft(id string) (*models.Goal, error) {
	if m.ClearCommitWindowIfDraftFunc != nil {
		return m.ClearCommitWindowIfDraftFunc(id)
	}
	return nil, repository.ErrInvalidTransition
}

func (m *mockGoalRepository) CommitIfDraft(id string, lockedAt time.Time) (*models.Goal, error) {
	if m.CommitIfDraftFunc != nil {
		return m.CommitIfDraftFunc(id, lockedAt)
	}
	return nil, repository.ErrInvalidTransition
}

func (m *mockGoalRepository) DeleteIfDraft(id string) error {
	if m.DeleteIfDraftFunc != nil {
		return m.DeleteIfDraftFunc(id)
	}
	return repository.ErrInvalidTransition
}

var fixedNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockGoalRepository, cfg config.GoalsConfig) *Service {
	svc := NewServiceWithInterfaces(repo, cfg, logger.New("error", "console", "stdout"))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func defaultGoalsConfig() config.GoalsConfig {
	return config.GoalsConfig{CommitWindowSeconds: 300, StartTimerOnCreate: true}
}

func TestCreate_StartsTimerWhenConfigured(t *testing.T) {
	repo := &mockGoalRepository{}
	svc := newTestService(repo, defaultGoalsConfig())

	goal, err := svc.Create(context.Background(), "user-1", "  Run 5k  ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if goal.Text != "Run 5k" {
		t.Errorf("Expected trimmed text, got %q", goal.Text)
	}
	if goal.Status != models.GoalStatusDraft {
		t.Errorf("Expected draft status, got %s", goal.Status)
	}
	if goal.CommittedAt == nil || !goal.CommittedAt.Equal(fixedNow) {
		t.Errorf("Expected CommittedAt = now, got %v", goal.CommittedAt)
	}
}

func TestCreate_NoTimerWhenDisabled(t *testing.T) {
	repo := &mockGoalRepository{}
	cfg := defaultGoalsConfig()
	cfg.StartTimerOnCreate = false
	svc := newTestService(repo, cfg)

	goal, err := svc.Create(context.Background(), "user-1", "Run 5k")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if goal.CommittedAt != nil {
		t.Errorf("Expected no CommittedAt, got %v", goal.CommittedAt)
	}
}

func TestCreate_RejectsWhenActiveGoalExists(t *testing.T) {
	repo := &mockGoalRepository{
		GetActiveByUserFunc: func(userID string) (*models.Goal, error) {
			return &models.Goal{ID: "g-1", UserID: userID, Status: models.GoalStatusCommitted}, nil
		},
	}
	svc := newTestService(repo, defaultGoalsConfig())

	_, err := svc.Create(context.Background(), "user-1", "second goal")
	if !apperr.IsInvalidState(err) {
		t.Errorf("Expected invalid state error, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(&mockGoalRepository{}, defaultGoalsConfig())

	if _, err := svc.Create(context.Background(), "", "text"); apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Errorf("Expected unauthenticated error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-1", "   "); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error for blank text, got %v", err)
	}
}

func TestUpdateText_RestartsCountdown(t *testing.T) {
	var gotCommittedAt time.Time
	repo := &mockGoalRepository{
		GetByIDFunc: func(id string) (*models.Goal, error) {
			return &models.Goal{ID: id, UserID: "user-1", Status: models.GoalStatusDraft}, nil
		},
		UpdateTextIfDraftFunc: func(id, text string, committedAt time.Time) (*models.Goal, error) {
			gotCommittedAt = committedAt
			return &models.Goal{ID: id, UserID: "user-1", Text: text, Status: models.GoalStatusDraft, CommittedAt: &committedAt}, nil
		},
	}
	svc := newTestService(repo, defaultGoalsConfig())

	goal, err := svc.UpdateText(context.Background(), "user-1", "g-1", "Run 10k")
	if err != nil {
		t.Fatalf("UpdateText failed: %v", err)
	}
	if goal.Text != "Run 10k" {
		t.Errorf("Expected updated text, got %q", goal.Text)
	}
	if !gotCommittedAt.Equal(fixedNow) {
		t.Errorf("Expected countdown restarted at now, got %v", gotCommittedAt)
	}
}

func TestUpdateText_RejectsNonDraft(t *testing.T) {
	repo := &mockGoalRepository{
		GetByIDFunc: func(id string) (*models.Goal, error) {
			return &models.Goal{ID: id, UserID: "user-1", Status: models.GoalStatusCommitted}, nil
		},
	}
	svc := newTestService(repo, defaultGoalsConfig())

	_, err := svc.UpdateText(context.Background(), "user-1", "g-1", "too late")
	if !apperr.IsInvalidState(err) {
		t.Errorf("Expected invalid state error, got %v", err)
	}
}

func TestUpdateText_EnforcedWindowExpired(t *testing.T) {
	expiredStart := fixedNow.Add(-10 * time.Minute)
	repo := &mockGoalRepository{
		GetByIDFunc: func(id string) (*models.Goal, error) {
			return &models.Goal{ID: id, UserID: "user-1", Status: models.GoalStatusDraft, CommittedAt: &expiredStart}, nil
		},
	}
	cfg := defaultGoalsConfig()
	cfg.EnforceEditWindow = true
	svc := newTestService(repo, cfg)

	_, err := svc.UpdateText(context.Background(), "user-1", "g-1", "too late")
	if !apperr.IsInvalidState(err) {
		t.Errorf("Expected invalid state error for expired window, got %v", err)
	}

	// Without enforcement the same edit is accepted.
	repo.UpdateTextIfDraftFunc = func(id, text string, committedAt time.Time) (*models.Goal, error) {
		return &models.Goal{ID: id, UserID: "user-1", Text: text, Status: models.GoalStatusDraft}, nil
	}
	svc = newTestService(repo, defaultGoalsConfig())
	if _, err := svc.UpdateText(context.Background(), "user-1", "g-1", "still fine"); err != nil {
		t.Errorf("Expected advisory window to allow edit, got %v", err)
	}
}

func TestCommit_SetsLockedAt(t *testing.T) {
	var gotLockedAt time.Time
	repo := &mockGoalRepository{
		GetByIDFunc: func(id string) (*models.Goal, error) {
			return &models.Goal{ID: id, UserID: "user-1", Status: models.GoalStatusDraft}, nil
		},
		CommitIfDraftFunc: func(id string, lockedAt time.Time) (*models.Goal, error) {
			gotLockedAt = lockedAt
			return &models.Goal{ID: id, UserID: "user-1", Status: models.GoalStatusCommitted, LockedAt: &lockedAt}, nil
		},
	}
	svc := newTestService(repo, defaultGoalsConfig())

	goal, err := svc.Commit(context.Background(), "user-1", "g-1")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if goal.Status != models.GoalStatusCommitted {
		t.Errorf("Expected committed status, got %s", goal.Status)
	}
	if !gotLockedAt.Equal(fixedNow) {
		t.Errorf("Expected LockedAt = now, got %v", gotLockedAt)
	}
}

func TestCommit_OwnershipHidesForeignGoals(t *testing.T) {
	repo := &mockGoalRepository{
		GetByIDFunc: func(id string) (*models.Goal, error) {
			return &models.Goal{ID: id, UserID: "someone-else", Status: models.GoalStatusDraft}, nil
		},
	}
	svc := newTestService(repo, defaultGoalsConfig())

	_, err := svc.Commit(context.Background(), "user-1", "g-1")
	if !apperr.IsNotFound(err) {
		t.Errorf("Expected not found for foreign goal, got %v", err)
	}
}

func TestDelete_RejectsCommitted(t *testing.T) {
	repo := &mockGoalRepository{
		GetByIDFunc: func(id string) (*models.Goal, error) {
			return &models.Goal{ID: id, UserID: "user-1", Status: models.GoalStatusCommitted}, nil
		},
	}
	svc := newTestService(repo, defaultGoalsConfig())

	err := svc.Delete(context.Background(), "user-1", "g-1")
	if !apperr.IsInvalidState(err) {
		t.Errorf("Expected invalid state error, got %v", err)
	}
}

func TestRemainingEditSeconds(t *testing.T) {
	svc := newTestService(&mockGoalRepository{}, defaultGoalsConfig())

	started := fixedNow.Add(-100 * time.Second)
	draft := &models.Goal{Status: models.GoalStatusDraft, CommittedAt: &started}
	if got := svc.RemainingEditSeconds(draft); got != 200 {
		t.Errorf("Expected 200 seconds remaining, got %d", got)
	}

	expired := fixedNow.Add(-400 * time.Second)
	draft.CommittedAt = &expired
	if got := svc.RemainingEditSeconds(draft); got != 0 {
		t.Errorf("Expected 0 after expiry, got %d", got)
	}

	// No countdown running.
	if got := svc.RemainingEditSeconds(&models.Goal{Status: models.GoalStatusDraft}); got != 0 {
		t.Errorf("Expected 0 without CommittedAt, got %d", got)
	}
	if got := svc.RemainingEditSeconds(nil); got != 0 {
		t.Errorf("Expected 0 for nil goal, got %d", got)
	}
}
