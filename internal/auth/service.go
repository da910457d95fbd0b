package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrAccountLocked     = errors.New("account is locked due to too many failed login attempts")
	ErrNameRequired      = errors.New("name is required")
	ErrEmailRequired     = errors.New("email is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrEmailInvalid      = errors.New("invalid email format")
	ErrUnknownAccountType = errors.New("unknown account type")
)

// Account is the authenticated identity handed to sessions and handlers,
// independent of which table the account lives in.
type Account struct {
	Type  entities.AccountType
	ID    uint
	Name  string
	Email string
}

// Service handles registration and login for all three account classes.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

func (s *Service) validateRegistration(name, email, password string) error {
	if name == "" {
		return ErrNameRequired
	}
	if email == "" {
		return ErrEmailRequired
	}
	if password == "" {
		return ErrPasswordRequired
	}
	// RFC 5321 length limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// emailTaken pre-checks the email's uniqueness within an account table.
// The unique index on email remains the authority for the race case.
func (s *Service) emailTaken(model any, email string) (bool, error) {
	var count int64
	err := s.db.Model(model).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing account: %w", err)
	}
	return count > 0, nil
}

// RegisterAdmin creates an admin account with a hashed password.
func (s *Service) RegisterAdmin(name, phone, email, password string) (*entities.Admin, error) {
	if err := s.validateRegistration(name, email, password); err != nil {
		return nil, err
	}
	taken, err := s.emailTaken(&entities.Admin{}, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyRegistered
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	admin := &entities.Admin{
		Name:         name,
		Phone:        phone,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

// RegisterLibrarian creates a librarian account with a hashed password.
func (s *Service) RegisterLibrarian(name, phone, email, password string) (*entities.Librarian, error) {
	if err := s.validateRegistration(name, email, password); err != nil {
		return nil, err
	}
	taken, err := s.emailTaken(&entities.Librarian{}, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyRegistered
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	librarian := &entities.Librarian{
		Name:         name,
		Phone:        phone,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.db.Create(librarian).Error; err != nil {
		return nil, fmt.Errorf("failed to create librarian: %w", err)
	}
	return librarian, nil
}

// RegisterStudent creates a student account owned by the registering
// librarian.
func (s *Service) RegisterStudent(name, phone, email, password, address string, librarianID uint) (*entities.Student, error) {
	if err := s.validateRegistration(name, email, password); err != nil {
		return nil, err
	}
	taken, err := s.emailTaken(&entities.Student{}, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyRegistered
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	student := &entities.Student{
		Name:         name,
		Phone:        phone,
		Email:        email,
		PasswordHash: hash,
		Address:      address,
		LibrarianID:  librarianID,
	}
	if err := s.db.Create(student).Error; err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return student, nil
}

// credentials is the common slice of an account row that login needs.
type credentials struct {
	id          uint
	name        string
	email       string
	hash        string
	failedCount int
	lockedUntil *time.Time
}

// Authenticate validates credentials for the given account class and
// returns the account. Implements lockout after too many failed attempts.
func (s *Service) Authenticate(accountType entities.AccountType, email, password string) (*Account, error) {
	creds, model, err := s.lookup(accountType, email)
	if err != nil {
		return nil, err
	}

	if creds.lockedUntil != nil && time.Now().Before(*creds.lockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, creds.hash); err != nil {
		s.recordFailedLogin(model, creds)
		return nil, err
	}

	// Successful login resets the failure counter.
	s.db.Model(model).Where("id = ?", creds.id).Updates(map[string]any{
		"failed_login_count": 0,
		"locked_until":       nil,
	})

	return &Account{
		Type:  accountType,
		ID:    creds.id,
		Name:  creds.name,
		Email: creds.email,
	}, nil
}

// GetAccount loads an account by class and ID, used to validate sessions.
func (s *Service) GetAccount(accountType entities.AccountType, id uint) (*Account, error) {
	switch accountType {
	case entities.AccountTypeAdmin:
		var admin entities.Admin
		if err := s.db.First(&admin, id).Error; err != nil {
			return nil, ErrAccountNotFound
		}
		return &Account{Type: accountType, ID: admin.ID, Name: admin.Name, Email: admin.Email}, nil
	case entities.AccountTypeLibrarian:
		var librarian entities.Librarian
		if err := s.db.First(&librarian, id).Error; err != nil {
			return nil, ErrAccountNotFound
		}
		return &Account{Type: accountType, ID: librarian.ID, Name: librarian.Name, Email: librarian.Email}, nil
	case entities.AccountTypeStudent:
		var student entities.Student
		if err := s.db.First(&student, id).Error; err != nil {
			return nil, ErrAccountNotFound
		}
		return &Account{Type: accountType, ID: student.ID, Name: student.Name, Email: student.Email}, nil
	}
	return nil, ErrUnknownAccountType
}

// HasAdmins reports whether any admin account exists. Used for the
// first-run setup route.
func (s *Service) HasAdmins() (bool, error) {
	var count int64
	err := s.db.Model(&entities.Admin{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) lookup(accountType entities.AccountType, email string) (*credentials, any, error) {
	switch accountType {
	case entities.AccountTypeAdmin:
		var admin entities.Admin
		if err := s.db.Where("email = ?", email).First(&admin).Error; err != nil {
			return nil, nil, s.notFound(err)
		}
		return &credentials{admin.ID, admin.Name, admin.Email, admin.PasswordHash,
			admin.FailedLoginCount, admin.LockedUntil}, &entities.Admin{}, nil
	case entities.AccountTypeLibrarian:
		var librarian entities.Librarian
		if err := s.db.Where("email = ?", email).First(&librarian).Error; err != nil {
			return nil, nil, s.notFound(err)
		}
		return &credentials{librarian.ID, librarian.Name, librarian.Email, librarian.PasswordHash,
			librarian.FailedLoginCount, librarian.LockedUntil}, &entities.Librarian{}, nil
	case entities.AccountTypeStudent:
		var student entities.Student
		if err := s.db.Where("email = ?", email).First(&student).Error; err != nil {
			return nil, nil, s.notFound(err)
		}
		return &credentials{student.ID, student.Name, student.Email, student.PasswordHash,
			student.FailedLoginCount, student.LockedUntil}, &entities.Student{}, nil
	}
	return nil, nil, ErrUnknownAccountType
}

func (s *Service) notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	return err
}

func (s *Service) recordFailedLogin(model any, creds *credentials) {
	creds.failedCount++

	updates := map[string]any{
		"failed_login_count": creds.failedCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if creds.failedCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		updates["locked_until"] = time.Now().Add(lockoutDuration)
	}

	s.db.Model(model).Where("id = ?", creds.id).Updates(updates)
}
