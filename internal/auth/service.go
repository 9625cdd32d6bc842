package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"airg/internal/models"
	"airg/internal/rbac"
	"airg/internal/repository"
)

var (
	// ErrAuthenticationFailure never says which factor was wrong.
	ErrAuthenticationFailure = errors.New("invalid email or password")
	ErrConflict              = errors.New("user already exists")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrInvalidInput          = errors.New("invalid input")
)

// DefaultBcryptCost is the work factor used for new password hashes.
const DefaultBcryptCost = 12

type Options struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
	Now        func() time.Time
}

// Service is the credential service: it authenticates users, issues
// session tokens and answers membership permission questions.
type Service struct {
	db      *gorm.DB
	users   *repository.Repository[models.User]
	checker rbac.Checker
	secret  []byte
	ttl     time.Duration
	cost    int
	now     func() time.Time

	// compared against when the email is unknown so both paths cost a bcrypt
	dummyHash []byte
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	dummy, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.MinCost)

	return &Service{
		db:        db,
		users:     repository.New[models.User](db),
		checker:   rbac.Checker{DB: db},
		secret:    []byte(opts.Secret),
		ttl:       opts.TTL,
		cost:      opts.BcryptCost,
		now:       opts.Now,
		dummyHash: dummy,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials returns the public identity of the user owning email
// when password matches its stored hash. Unknown emails, wrong passwords and
// deactivated accounts all yield ErrAuthenticationFailure.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (models.PublicProfile, error) {
	user, err := s.users.FindOne(ctx, repository.Filter{
		Where: map[string]any{"email": normalizeEmail(email)},
	})
	if errors.Is(err, repository.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return models.PublicProfile{}, ErrAuthenticationFailure
	}
	if err != nil {
		return models.PublicProfile{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.PublicProfile{}, ErrAuthenticationFailure
	}
	if !user.IsActive {
		return models.PublicProfile{}, ErrAuthenticationFailure
	}
	return user.Public(), nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	profile, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.IssueSession(profile)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	OrgName  string
}

// Register creates the user, their organization and the owner membership
// in one transaction, then issues a session. An existing email yields
// ErrConflict and leaves every row untouched.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := normalizeEmail(in.Email)
	slug := Slugify(in.OrgName)
	if email == "" || in.Password == "" || slug == "" {
		return Session{}, fmt.Errorf("%w: email, password and organization name are required", ErrInvalidInput)
	}

	_, err := s.users.FindOne(ctx, repository.Filter{Where: map[string]any{"email": email}})
	switch {
	case err == nil:
		return Session{}, ErrConflict
	case !errors.Is(err, repository.ErrNotFound):
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		IsActive:     true,
		Role:         models.UserRoleUser,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.New[models.User](tx).Create(ctx, &user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrConflict
			}
			return fmt.Errorf("create user: %w", err)
		}

		org := models.Organization{Name: strings.TrimSpace(in.OrgName), Slug: slug}
		var taken int64
		if err := tx.Model(&models.Organization{}).Where("slug = ?", slug).Count(&taken).Error; err != nil {
			return fmt.Errorf("check organization slug: %w", err)
		}
		if taken > 0 {
			org.Slug = suffixSlug(slug)
		}
		if err := createOrganization(ctx, tx, &org, slug); err != nil {
			return err
		}

		membership := models.Membership{
			UserID:         user.ID,
			OrganizationID: org.ID,
			Role:           rbac.RoleOwner,
			IsActive:       true,
		}
		if err := repository.New[models.Membership](tx).Create(ctx, &membership); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}

		zerolog.Ctx(ctx).Info().
			Str("user_id", user.ID).
			Str("organization_id", org.ID).
			Msg("user registered")
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	return s.IssueSession(user.Public())
}

const slugAttempts = 3

func suffixSlug(slug string) string {
	return slug + "-" + uuid.NewString()[:8]
}

// createOrganization inserts org, picking a fresh suffixed slug when another
// registration took the slug after it was checked. Each attempt runs in a
// savepoint so a unique violation does not abort the outer transaction.
func createOrganization(ctx context.Context, tx *gorm.DB, org *models.Organization, base string) error {
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		if attempt > 0 {
			org.ID = ""
			org.Slug = suffixSlug(base)
		}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return repository.New[models.Organization](sp).Create(ctx, org)
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		zerolog.Ctx(ctx).Debug().Str("slug", org.Slug).Msg("organization slug taken, retrying")
	}
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

// ListOrganizationsForUser returns the user's active memberships with the
// organization attached. Order is unspecified.
func (s *Service) ListOrganizationsForUser(ctx context.Context, userID string) ([]models.Membership, error) {
	return repository.New[models.Membership](s.db).FindByFilter(ctx, repository.Filter{
		Where:   map[string]any{"user_id": userID, "is_active": true},
		Preload: []string{"Organization"},
	})
}

// CheckPermission reports whether userID holds at least required in orgID.
// Callers translate false into a rejection.
func (s *Service) CheckPermission(ctx context.Context, userID, orgID string, required rbac.Role) (bool, error) {
	return s.checker.CheckPermission(ctx, userID, orgID, required)
}

// ActiveUser loads userID and reports whether the account may still act.
func (s *Service) ActiveUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAuthenticationFailure
	}
	return user, nil
}

// ChangePassword replaces the password of userID after checking current.
// A wrong current password yields ErrAuthenticationFailure.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	user, err := s.ActiveUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrAuthenticationFailure
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("user_id", userID).Msg("password changed")
	return nil
}
