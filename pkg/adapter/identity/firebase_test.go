package identity_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/adapter/identity"
	"github.com/secmon-lab/notifyme/pkg/adapter/storage"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"google.golang.org/api/googleapi"
)

const testProject = "notifyme-test"

func unsignedToken(t *testing.T, uid, email string, exp time.Time) string {
	tok, err := jwt.NewBuilder().
		Subject(uid).
		Issuer("https://securetoken.google.com/"+testProject).
		Audience([]string{testProject}).
		IssuedAt(time.Now().Add(-time.Minute)).
		Expiration(exp).
		Claim("email", email).
		Build()
	gt.NoError(t, err).Required()

	signed, err := jwt.Sign(tok, jwt.WithInsecureNoSignature())
	gt.NoError(t, err).Required()
	return string(signed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func providerError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
			"errors":  []map[string]any{{"message": msg, "domain": "global", "reason": "invalid"}},
		},
	})
}

// newEmulator fakes the Authentication emulator endpoints used by the
// provider.
func newEmulator(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/www.googleapis.com/identitytoolkit/v3/relyingparty/verifyPassword", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "secret1" {
			providerError(w, http.StatusBadRequest, "INVALID_PASSWORD")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"idToken":      unsignedToken(t, "uid-alice", "alice@example.com", time.Now().Add(time.Hour)),
			"refreshToken": "refresh-1",
			"localId":      "uid-alice",
			"email":        "alice@example.com",
			"displayName":  "Alice",
			"expiresIn":    "3600",
		})
	})

	mux.HandleFunc("/www.googleapis.com/identitytoolkit/v3/relyingparty/signupNewUser", func(w http.ResponseWriter, r *http.Request) {
		providerError(w, http.StatusBadRequest, "EMAIL_EXISTS")
	})

	mux.HandleFunc("/www.googleapis.com/identitytoolkit/v3/relyingparty/getAccountInfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"users": []map[string]any{{"localId": "uid-alice", "email": "alice@example.com"}},
		})
	})

	mux.HandleFunc("/securetoken.googleapis.com/v1/token", func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, r.ParseForm())
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			providerError(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id_token":      unsignedToken(t, "uid-alice", "alice@example.com", time.Now().Add(time.Hour)),
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
			"user_id":       "uid-alice",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFirebase(t *testing.T, srv *httptest.Server, store *storage.Memory) *identity.Firebase {
	p, err := identity.NewFirebase(t.Context(), identity.FirebaseConfig{
		APIKey:       "test-api-key",
		ProjectID:    testProject,
		EmulatorHost: strings.TrimPrefix(srv.URL, "http://"),
	}, store)
	gt.NoError(t, err).Required()
	t.Cleanup(p.Close)
	return p
}

func TestFirebase_SignIn(t *testing.T) {
	srv := newEmulator(t)
	store := storage.NewMemory()
	p := newFirebase(t, srv, store)

	t.Run("invalid password", func(t *testing.T) {
		_, err := p.SignIn(t.Context(), session.Credentials{Email: "alice@example.com", Password: "wrong"})
		gt.True(t, errs.IsAuthKind(err, errs.AuthInvalidCredentials))
	})

	t.Run("email in use", func(t *testing.T) {
		_, err := p.SignUp(t.Context(), session.Credentials{Email: "alice@example.com", Password: "secret1"}, "Alice")
		gt.True(t, errs.IsAuthKind(err, errs.AuthEmailInUse))
	})

	t.Run("success persists credential", func(t *testing.T) {
		id, err := p.SignIn(t.Context(), session.Credentials{Email: "alice@example.com", Password: "secret1"})
		gt.NoError(t, err).Required()
		gt.Equal(t, id.UID, "uid-alice")
		gt.Equal(t, id.Email, "alice@example.com")
		gt.Equal(t, id.DisplayName, "Alice")

		data, err := store.Load(t.Context(), identity.CredentialStorageKey)
		gt.NoError(t, err)
		gt.S(t, string(data)).Contains("refresh-1")
	})

	t.Run("sign out clears credential", func(t *testing.T) {
		gt.NoError(t, p.SignOut(t.Context()))
		data, err := store.Load(t.Context(), identity.CredentialStorageKey)
		gt.NoError(t, err)
		gt.Nil(t, data)
	})
}

func TestFirebase_Restore(t *testing.T) {
	srv := newEmulator(t)
	store := storage.NewMemory()

	// expired credential forces a refresh on restore
	expired, err := json.Marshal(map[string]any{
		"uid":          "uid-alice",
		"email":        "alice@example.com",
		"displayName":  "Alice",
		"idToken":      "expired",
		"refreshToken": "refresh-1",
		"expiresAt":    time.Now().Add(-time.Hour),
	})
	gt.NoError(t, err).Required()
	gt.NoError(t, store.Save(t.Context(), identity.CredentialStorageKey, expired)).Required()

	p := newFirebase(t, srv, store)

	got := make(chan *session.Identity, 1)
	stop := p.OnAuthStateChanged(t.Context(), func(id *session.Identity) { got <- id })
	defer stop()

	select {
	case id := <-got:
		gt.NotNil(t, id)
		gt.Equal(t, id.UID, "uid-alice")
		gt.Equal(t, id.DisplayName, "Alice")
	case <-time.After(10 * time.Second):
		t.Fatal("no auth state delivered")
	}
}

func TestFirebase_RestoreRejected(t *testing.T) {
	srv := newEmulator(t)
	store := storage.NewMemory()

	revoked, err := json.Marshal(map[string]any{
		"uid":          "uid-alice",
		"idToken":      "expired",
		"refreshToken": "revoked",
		"expiresAt":    time.Now().Add(-time.Hour),
	})
	gt.NoError(t, err).Required()
	gt.NoError(t, store.Save(t.Context(), identity.CredentialStorageKey, revoked)).Required()

	p := newFirebase(t, srv, store)

	got := make(chan *session.Identity, 1)
	stop := p.OnAuthStateChanged(t.Context(), func(id *session.Identity) { got <- id })
	defer stop()

	select {
	case id := <-got:
		gt.Nil(t, id)
	case <-time.After(10 * time.Second):
		t.Fatal("no auth state delivered")
	}

	data, err := store.Load(t.Context(), identity.CredentialStorageKey)
	gt.NoError(t, err)
	gt.Nil(t, data)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want errs.AuthKind
	}{
		{"email exists", &googleapi.Error{Code: 400, Message: "EMAIL_EXISTS"}, errs.AuthEmailInUse},
		{"weak password with detail", &googleapi.Error{Code: 400, Message: "WEAK_PASSWORD : Password should be at least 6 characters"}, errs.AuthWeakPassword},
		{"unknown email", &googleapi.Error{Code: 400, Message: "EMAIL_NOT_FOUND"}, errs.AuthInvalidCredentials},
		{"code in items", &googleapi.Error{Code: 400, Errors: []googleapi.ErrorItem{{Message: "INVALID_LOGIN_CREDENTIALS"}}}, errs.AuthInvalidCredentials},
		{"server error", &googleapi.Error{Code: 503, Message: "backend unavailable"}, errs.AuthNetwork},
		{"transport error", http.ErrHandlerTimeout, errs.AuthNetwork},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, identity.Classify(tc.err), tc.want)
		})
	}
}
