package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._@+-]{3,64}$`)

// AppValidator implements the usecase.Validator interface.
type AppValidator struct {
	validate *validator.Validate
}

var _ usecasecontract.IValidator = (*AppValidator)(nil)

func NewValidator() *AppValidator {
	return &AppValidator{validate: validator.New()}
}

// ValidateEmail checks if the email format is valid.
func (av *AppValidator) ValidateEmail(email string) error {
	if err := av.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("please add a valid email")
	}
	return nil
}

// ValidatePasswordStrength checks the length bounds of a new password.
func (av *AppValidator) ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password cannot be more than %d characters", MaxPasswordLength)
	}
	if strings.TrimFunc(password, unicode.IsSpace) == "" {
		return fmt.Errorf("password cannot be blank")
	}
	return nil
}

func (av *AppValidator) ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username must be 3-64 characters of letters, digits or . _ @ + -")
	}
	return nil
}

// RegisterCustomValidators registers custom validation functions with the Gin validator.
func RegisterCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("usertype", userTypeFL)
		_ = v.RegisterValidation("storagemode", storageModeFL)
		_ = v.RegisterValidation("username", usernameFL)
	}
}

func userTypeFL(fl validator.FieldLevel) bool {
	return entity.UserType(fl.Field().String()).Valid()
}

// empty means "use the default"
func storageModeFL(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || entity.StorageMode(s).Valid()
}

func usernameFL(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}
