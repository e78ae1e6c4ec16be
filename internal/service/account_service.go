// Package service contains the business logic between the HTTP layer and the
// repositories.
package service

import (
	"context"
	"errors"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Authenticate when the username or
// password does not match.
var ErrInvalidCredentials = errors.New("invalid username or password")

const dummyBcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AccountService manages the user/profile pair as one unit: a user never
// exists without exactly one profile.
type AccountService struct {
	db       *gorm.DB
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

type UpdateAccountInput struct {
	UserID   uint
	Username string
	Email    string
	Bio      *string
}

// NewAccountService returns a new AccountService. The db handle is used for
// the transactions that keep user and profile writes atomic.
func NewAccountService(db *gorm.DB, users repository.UserRepository, profiles repository.ProfileRepository) *AccountService {
	return &AccountService{
		db:       db,
		users:    users,
		profiles: profiles,
	}
}

// Register creates a user with its profile in one transaction. Validation
// failures are collected per field so the client can render them next to the
// form inputs.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	fields := map[string]string{}

	if err := validation.ValidateUsername(in.Username); err != nil {
		fields["username"] = err.Error()
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if err := validation.ValidatePasswordConfirmation(in.Password, in.PasswordConfirm); err != nil {
		fields["password_confirm"] = err.Error()
	}

	if _, taken := fields["username"]; !taken {
		existing, err := s.users.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			fields["username"] = "A user with that username already exists"
		}
	}
	if _, taken := fields["email"]; !taken {
		existing, err := s.users.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			fields["email"] = "A user with that email already exists"
		}
	}

	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUsers := repository.NewUserRepository(tx)
		if err := txUsers.Create(ctx, user); err != nil {
			return err
		}
		profile, err := ensureProfileTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.AccountsRegistered.Inc()
	return user, nil
}

// EnsureProfile guarantees the user has exactly one profile and returns it.
// It is idempotent: an existing profile is returned untouched, a missing one
// is created with defaults, and more than one is an integrity fault.
func (s *AccountService) EnsureProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile *models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = ensureProfileTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func ensureProfileTx(ctx context.Context, tx *gorm.DB, userID uint) (*models.Profile, error) {
	profiles := repository.NewProfileRepository(tx)

	count, err := profiles.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case count > 1:
		return nil, models.NewConsistencyError("user has more than one profile", nil)
	case count == 1:
		var existing models.Profile
		if err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		return &existing, nil
	}

	profile := &models.Profile{UserID: userID}
	if err := profiles.Create(ctx, profile); err != nil {
		var appErr *models.AppError
		// A concurrent ensure hit the unique index first; the row it created
		// satisfies us.
		if errors.As(err, &appErr) && appErr.Code == models.CodeConsistency {
			var existing models.Profile
			if ferr := tx.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return profile, nil
}

// Authenticate verifies a username/password pair and returns the user.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a comparison anyway so missing users cost the same as bad
		// passwords.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyBcryptHash), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetAccount returns the user together with its profile, creating the profile
// if a legacy row is missing one.
func (s *AccountService) GetAccount(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Profile = profile
	return user, nil
}

// UpdateAccount applies username/email/bio changes atomically across the user
// and profile rows.
func (s *AccountService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	fields := map[string]string{}

	if in.Username != "" {
		if err := validation.ValidateUsername(in.Username); err != nil {
			fields["username"] = err.Error()
		}
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			fields["email"] = err.Error()
		}
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			fields["bio"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUsers := repository.NewUserRepository(tx)

		if in.Username != "" && in.Username != user.Username {
			existing, err := txUsers.GetByUsername(ctx, in.Username)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != user.ID {
				return models.NewFieldValidationError(map[string]string{
					"username": "A user with that username already exists",
				})
			}
			user.Username = in.Username
		}
		if in.Email != "" && in.Email != user.Email {
			existing, err := txUsers.GetByEmail(ctx, in.Email)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != user.ID {
				return models.NewFieldValidationError(map[string]string{
					"email": "A user with that email already exists",
				})
			}
			user.Email = in.Email
		}
		if err := txUsers.Update(ctx, user); err != nil {
			return err
		}

		profile, err := ensureProfileTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		if in.Bio != nil {
			profile.Bio = *in.Bio
			txProfiles := repository.NewProfileRepository(tx)
			if err := txProfiles.Update(ctx, profile); err != nil {
				return err
			}
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.ProfileKey(user.ID))
	return user, nil
}

// DeleteAccount removes the user. Posts, comments and the profile disappear
// with it through the cascade constraints.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.ProfileKey(userID))
	cache.InvalidatePattern(ctx, cache.PostListPattern())
	return nil
}

// VerifyProfileInvariant checks that the user has exactly one profile row.
// Exposed for the health surface and tests.
func (s *AccountService) VerifyProfileInvariant(ctx context.Context, userID uint) error {
	count, err := s.profiles.CountByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if count != 1 {
		return models.NewConsistencyError("user must have exactly one profile", nil)
	}
	return nil
}
