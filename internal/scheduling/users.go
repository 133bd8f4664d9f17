package scheduling

import (
	"context"

	"github.com/rs/zerolog/log"

	"example.com/hospital/services/scheduling/internal/domain"
	"example.com/hospital/services/scheduling/internal/repository"
)

// UserService registers hospital users and resolves their profiles.
type UserService struct {
	users repository.UserDirectory
}

// NewUserService creates the user service.
func NewUserService(users repository.UserDirectory) *UserService {
	return &UserService{users: users}
}

// Register creates a user with a unique email.
func (s *UserService) Register(ctx context.Context, name, email string, role domain.Role) (*domain.User, error) {
	user, err := domain.NewUser(name, email, role)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewValidationError("Email already registered")
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("user_id", saved.ID).
		Str("role", string(saved.Role)).
		Msg("User registered")

	return saved, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// ListActive returns all active users.
func (s *UserService) ListActive(ctx context.Context) ([]domain.User, error) {
	return s.users.FindActive(ctx)
}
