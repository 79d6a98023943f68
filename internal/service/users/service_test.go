package users

import (
	"context"
	"testing"

	"github.com/dailyone-app/dailyone-backend/internal/models"
	"github.com/dailyone-app/dailyone-backend/internal/repository"
	"github.com/dailyone-app/dailyone-backend/pkg/apperr"
	"github.com/dailyone-app/dailyone-backend/pkg/logger"
)

// mockUserRepository is a function-field mock for user persistence.
type mockUserRepository struct {
	GetBySubjectFunc func(subject string) (*models.User, error)
	created          []*models.User
	updated          []*models.User
}

func (m *mockUserRepository) Create(user *models.User) error {
	user.ID = "user-new"
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepository) GetByID(id string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) GetBySubject(subject string) (*models.User, error) {
	if m.GetBySubjectFunc != nil {
		return m.GetBySubjectFunc(subject)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) Update(user *models.User) error {
	m.updated = append(m.updated, user)
	return nil
}

func newTestService(repo *mockUserRepository) *Service {
	return NewServiceWithInterfaces(repo, logger.New("error", "console", "stdout"))
}

func TestEnsureUser_CreatesOnFirstSignIn(t *testing.T) {
	repo := &mockUserRepository{}
	svc := newTestService(repo)

	user, err := svc.EnsureUser(context.Background(), "auth0|abc", "a@example.com", "Alex")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("Expected one create, got %d", len(repo.created))
	}
	if user.Subject != "auth0|abc" || user.Email != "a@example.com" || user.Name != "Alex" {
		t.Errorf("Unexpected user %+v", user)
	}
}

func TestEnsureUser_RefreshesChangedProfile(t *testing.T) {
	repo := &mockUserRepository{
		GetBySubjectFunc: func(subject string) (*models.User, error) {
			return &models.User{ID: "user-1", Subject: subject, Email: "old@example.com", Name: "Old"}, nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.EnsureUser(context.Background(), "auth0|abc", "new@example.com", "New")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if len(repo.updated) != 1 {
		t.Fatalf("Expected one update, got %d", len(repo.updated))
	}
	if user.Email != "new@example.com" || user.Name != "New" {
		t.Errorf("Expected profile refresh, got %+v", user)
	}
	if len(repo.created) != 0 {
		t.Error("Existing user must not be re-created")
	}
}

func TestEnsureUser_UnchangedProfileSkipsUpdate(t *testing.T) {
	repo := &mockUserRepository{
		GetBySubjectFunc: func(subject string) (*models.User, error) {
			return &models.User{ID: "user-1", Subject: subject, Email: "a@example.com", Name: "Alex"}, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.EnsureUser(context.Background(), "auth0|abc", "a@example.com", "Alex"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if len(repo.updated) != 0 {
		t.Errorf("Expected no update for an unchanged profile, got %d", len(repo.updated))
	}
}

func TestEnsureUser_EmptyClaimsDoNotClobberProfile(t *testing.T) {
	repo := &mockUserRepository{
		GetBySubjectFunc: func(subject string) (*models.User, error) {
			return &models.User{ID: "user-1", Subject: subject, Email: "a@example.com", Name: "Alex"}, nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.EnsureUser(context.Background(), "auth0|abc", "", "")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if user.Email != "a@example.com" || user.Name != "Alex" {
		t.Errorf("Empty claims must be ignored, got %+v", user)
	}
	if len(repo.updated) != 0 {
		t.Errorf("Expected no update, got %d", len(repo.updated))
	}
}

func TestEnsureUser_EmptySubject(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	_, err := svc.EnsureUser(context.Background(), "", "a@example.com", "Alex")
	if apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Errorf("Expected unauthenticated error, got %v", err)
	}
}

func TestBySubject_NotFound(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	_, err := svc.BySubject(context.Background(), "auth0|missing")
	if !apperr.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestBySubject_Found(t *testing.T) {
	repo := &mockUserRepository{
		GetBySubjectFunc: func(subject string) (*models.User, error) {
			return &models.User{ID: "user-1", Subject: subject}, nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.BySubject(context.Background(), "auth0|abc")
	if err != nil {
		t.Fatalf("BySubject failed: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("Expected user-1, got %s", user.ID)
	}
}
