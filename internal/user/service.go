package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/servicebook/internal"
	"golang.org/x/crypto/bcrypt"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GroupNames(ctx context.Context, userID int64) ([]string, error)
	Create(ctx context.Context, a *Account) error
	EnsureGroup(ctx context.Context, name string) (int64, error)
	AddToGroup(ctx context.Context, userID, groupID int64) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Profile loads the account and its group names.
func (s *Service) Profile(ctx context.Context, id int64) (*Profile, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if a == nil {
		return nil, internal.ErrUserNotFound
	}

	groups, err := s.repo.GroupNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}
	return NewProfile(a, groups), nil
}

// Principal is Profile plus the active check and role resolution.
func (s *Service) Principal(ctx context.Context, id int64) (*internal.Principal, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if a == nil {
		return nil, internal.ErrInvalidToken
	}
	if !a.IsActive {
		return nil, internal.ErrUserInactive
	}

	groups, err := s.repo.GroupNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}
	return NewProfile(a, groups).Principal(), nil
}

// Credentials returns nil, nil for unknown usernames.
func (s *Service) Credentials(ctx context.Context, username string) (*Account, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

// Register creates the account unless the username is taken, then makes sure it belongs to
// every listed group. created is false when the account already existed.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (a *Account, created bool, err error) {
	if verr := dto.Validate(); verr != nil {
		return nil, false, verr
	}

	a, err = s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		return nil, false, err
	}

	if a == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
		if err != nil {
			return nil, false, internal.NewInternalError("failed to hash password", err)
		}
		a = &Account{
			Username:     dto.Username,
			FirstName:    dto.FirstName,
			LastName:     dto.LastName,
			PasswordHash: string(hash),
			IsStaff:      dto.IsStaff,
			IsActive:     true,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			s.logger.Error("failed to create user", "username", dto.Username, "error", err)
			return nil, false, internal.NewInternalError("failed to create user", err)
		}
		created = true
	}

	for _, name := range dto.Groups {
		groupID, err := s.repo.EnsureGroup(ctx, name)
		if err != nil {
			return nil, created, fmt.Errorf("failed to ensure group %q: %w", name, err)
		}
		if err := s.repo.AddToGroup(ctx, a.ID, groupID); err != nil {
			return nil, created, fmt.Errorf("failed to add %s to %q: %w", a.Username, name, err)
		}
	}

	if created {
		s.logger.Info("user registered", "user_id", a.ID, "username", a.Username, "groups", dto.Groups)
	}
	return a, created, nil
}

func VerifyPassword(a *Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
