package errors

import "accounts/internal/errors"

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (AppError, bool) {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// UnifyNotFound reports a missing account the same way as a wrong password,
// so callers at the HTTP boundary cannot tell which emails are registered.
func UnifyNotFound(err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return ErrInvalidCredential.WrapMessage("sign in failed")
	}

	return err
}
