package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"google.golang.org/api/googleapi"
)

var providerCodes = map[string]errs.AuthKind{
	"EMAIL_EXISTS":              errs.AuthEmailInUse,
	"WEAK_PASSWORD":             errs.AuthWeakPassword,
	"EMAIL_NOT_FOUND":           errs.AuthInvalidCredentials,
	"INVALID_PASSWORD":          errs.AuthInvalidCredentials,
	"INVALID_LOGIN_CREDENTIALS": errs.AuthInvalidCredentials,
	"INVALID_EMAIL":             errs.AuthInvalidCredentials,
	"USER_DISABLED":             errs.AuthInvalidCredentials,
	"USER_NOT_FOUND":            errs.AuthInvalidCredentials,
	"INVALID_ID_TOKEN":          errs.AuthInvalidCredentials,
	"INVALID_REFRESH_TOKEN":     errs.AuthInvalidCredentials,
	"TOKEN_EXPIRED":             errs.AuthInvalidCredentials,
}

// kindFromMessage matches the provider error code at the start of msg.
// WEAK_PASSWORD comes with a suffix like " : Password should be at least 6
// characters".
func kindFromMessage(msg string) (errs.AuthKind, bool) {
	for code, kind := range providerCodes {
		if strings.HasPrefix(msg, code) {
			return kind, true
		}
	}
	return "", false
}

// classify maps a provider error to an auth kind. Anything that is not a
// response from the provider counts as a network failure.
func classify(err error) errs.AuthKind {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return errs.AuthNetwork
	}

	if kind, ok := kindFromMessage(gerr.Message); ok {
		return kind
	}
	for _, item := range gerr.Errors {
		if kind, ok := kindFromMessage(item.Message); ok {
			return kind
		}
	}

	if gerr.Code >= http.StatusInternalServerError || gerr.Code == http.StatusTooManyRequests {
		return errs.AuthNetwork
	}
	return errs.AuthInvalidCredentials
}
