package account

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniasistencia/backend/core"
)

var (
	// HashCost is lowered in tests.
	HashCost = bcrypt.DefaultCost

	ErrNoPassword = errors.New("account has no password")

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the account name or email"
)

// InitValidators registers the password policy translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// HashPassword returns the one-way bcrypt hash of pwd.
func HashPassword(pwd string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), HashCost)
	return hash, errors.Wrap(err, "hashing password")
}

// CheckPassword compares pwd against hash.
func CheckPassword(hash []byte, pwd string) error {
	if len(hash) == 0 {
		return ErrNoPassword
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd))
}

// ValidatePassword applies the password policy to pwd:
// - minLen: 6
// - no whitespace
// - no similarity with account attributes (name, email)
func ValidatePassword(sl validator.StructLevel, pwd string, attrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		// compare with the local part of emails too
		candidates := []string{strings.ToLower(attr)}
		if i := strings.Index(attr, "@"); i > 0 {
			candidates = append(candidates, strings.ToLower(attr[:i]))
		}
		for _, c := range candidates {
			ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(c, "")).QuickRatio()
			if ratio >= pwdMaxSim {
				reportErr(pwdAttrSimTag)
				return
			}
		}
	}
}
