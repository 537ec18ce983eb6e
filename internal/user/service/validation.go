package service

import (
	"net/mail"
	"regexp"
	"unicode/utf8"

	pkgerrors "coderelay/pkg/errors"
)

const maxNameLength = 64

// Password: 8-72 printable ASCII characters. bcrypt rejects inputs over 72 bytes.
var passwordPattern = regexp.MustCompile(`^[\x20-\x7E]{8,72}$`)

func validateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return pkgerrors.New(pkgerrors.InvalidName).WithMessage("Name must be 1 to 64 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 254 {
		return pkgerrors.New(pkgerrors.InvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return pkgerrors.New(pkgerrors.InvalidEmail)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return pkgerrors.New(pkgerrors.PasswordTooWeak).WithMessage("Password must be at least 8 characters")
	}
	if !passwordPattern.MatchString(password) {
		return pkgerrors.New(pkgerrors.InvalidPassword)
	}
	return nil
}
