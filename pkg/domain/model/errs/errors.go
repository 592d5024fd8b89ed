package errs

import (
	"github.com/m-mizutani/goerr/v2"
)

// AuthKind classifies identity failures surfaced by the session store.
type AuthKind string

const (
	AuthInvalidCredentials AuthKind = "invalid_credentials"
	AuthEmailInUse         AuthKind = "email_in_use"
	AuthWeakPassword       AuthKind = "weak_password"
	AuthProfileMissing     AuthKind = "profile_missing"
	AuthNetwork            AuthKind = "network_error"
)

var authMessages = map[AuthKind]string{
	AuthInvalidCredentials: "Invalid email or password",
	AuthEmailInUse:         "Email is already in use",
	AuthWeakPassword:       "Password should be at least 6 characters",
	AuthProfileMissing:     "User profile not found",
	AuthNetwork:            "Network error, please try again",
}

// Message is the user readable text for the kind.
func (k AuthKind) Message() string {
	if msg, ok := authMessages[k]; ok {
		return msg
	}
	return "Authentication failed"
}

// FeedKind classifies realtime feed failures.
type FeedKind string

const (
	FeedSubscriptionFailed FeedKind = "subscription_failed"
)

var (
	AuthKindKey = goerr.NewTypedKey[AuthKind]("auth_kind")
	FeedKindKey = goerr.NewTypedKey[FeedKind]("feed_kind")
)

// NewAuthError builds an auth error tagged with TagAuth and the given kind.
func NewAuthError(kind AuthKind, opts ...goerr.Option) *goerr.Error {
	opts = append(opts, goerr.T(TagAuth), goerr.TV(AuthKindKey, kind))
	return goerr.New(kind.Message(), opts...)
}

// WrapAuthError wraps cause as an auth error of the given kind.
func WrapAuthError(cause error, kind AuthKind, opts ...goerr.Option) *goerr.Error {
	opts = append(opts, goerr.T(TagAuth), goerr.TV(AuthKindKey, kind))
	return goerr.Wrap(cause, kind.Message(), opts...)
}

// AuthKindOf extracts the auth kind from err. ok is false for non-auth errors.
func AuthKindOf(err error) (AuthKind, bool) {
	if err == nil {
		return "", false
	}
	return goerr.GetTypedValue(err, AuthKindKey)
}

// IsAuthKind reports whether err is an auth error of the given kind.
func IsAuthKind(err error, kind AuthKind) bool {
	got, ok := AuthKindOf(err)
	return ok && got == kind
}

// WrapFeedError marks cause as a failed feed subscription.
func WrapFeedError(cause error, opts ...goerr.Option) *goerr.Error {
	opts = append(opts, goerr.T(TagExternal), goerr.TV(FeedKindKey, FeedSubscriptionFailed))
	return goerr.Wrap(cause, "notice subscription failed", opts...)
}
