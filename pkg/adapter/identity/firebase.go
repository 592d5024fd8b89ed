package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/errs"
	"github.com/secmon-lab/notifyme/pkg/domain/model/session"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/utils/clock"
	"github.com/secmon-lab/notifyme/pkg/utils/errutil"
	"github.com/secmon-lab/notifyme/pkg/utils/logging"
	"github.com/secmon-lab/notifyme/pkg/utils/safe"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const (
	jwksURL         = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	secureTokenHost = "securetoken.googleapis.com"
	issuerPrefix    = "https://securetoken.google.com/"

	// refresh this long before the ID token expires
	refreshMargin = 5 * time.Minute
	// wait before retrying a refresh that failed for network reasons
	refreshRetry = time.Minute
)

type FirebaseConfig struct {
	APIKey    string `masq:"secret"`
	ProjectID string
	// EmulatorHost is host:port of the Authentication emulator. When set,
	// ID tokens are decoded without signature verification.
	EmulatorHost string
}

// Firebase authenticates against Firebase Authentication with email and
// password. The signed-in credential is kept in storage and refreshed
// before it expires.
type Firebase struct {
	svc        *identitytoolkit.Service
	cfg        FirebaseConfig
	storage    interfaces.SessionStorage
	httpClient *http.Client

	mu      sync.Mutex
	cred    *credential
	refresh *time.Timer

	restoreOnce sync.Once
	listeners   *listeners
}

var _ interfaces.IdentityProvider = &Firebase{}

func NewFirebase(ctx context.Context, cfg FirebaseConfig, storage interfaces.SessionStorage) (*Firebase, error) {
	if cfg.APIKey == "" {
		return nil, goerr.New("firebase API key is required")
	}
	if cfg.ProjectID == "" {
		return nil, goerr.New("firebase project ID is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.EmulatorHost != "" {
		opts = append(opts, option.WithEndpoint("http://"+cfg.EmulatorHost+"/www.googleapis.com/identitytoolkit/v3/relyingparty/"))
	}

	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create identity toolkit client")
	}

	return &Firebase{
		svc:        svc,
		cfg:        cfg,
		storage:    storage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		listeners:  newListeners(),
	}, nil
}

func (x *Firebase) authError(cause error, opts ...goerr.Option) error {
	opts = append(opts, goerr.TV(errutil.ProviderKey, "firebase"))
	return errs.WrapAuthError(cause, classify(cause), opts...)
}

func (x *Firebase) SignIn(ctx context.Context, cred session.Credentials) (*session.Identity, error) {
	resp, err := x.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             cred.Email,
		Password:          cred.Password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, x.authError(err, goerr.TV(errutil.EmailKey, cred.Email))
	}

	return x.establish(ctx, resp.IdToken, resp.RefreshToken, resp.DisplayName)
}

func (x *Firebase) SignUp(ctx context.Context, cred session.Credentials, displayName string) (*session.Identity, error) {
	resp, err := x.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:       cred.Email,
		Password:    cred.Password,
		DisplayName: displayName,
	}).Context(ctx).Do()
	if err != nil {
		return nil, x.authError(err, goerr.TV(errutil.EmailKey, cred.Email))
	}

	return x.establish(ctx, resp.IdToken, resp.RefreshToken, displayName)
}

// establish verifies the new token pair, persists it and announces the
// signed-in identity.
func (x *Firebase) establish(ctx context.Context, idToken, refreshToken, displayName string) (*session.Identity, error) {
	cred, err := x.verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	cred.RefreshToken = refreshToken
	if displayName != "" {
		cred.DisplayName = displayName
	}

	if err := saveCredential(ctx, x.storage, cred); err != nil {
		return nil, errs.WrapAuthError(err, errs.AuthNetwork)
	}

	x.setCredential(ctx, cred)
	x.listeners.emit(ctx, cred.identity())
	return cred.identity(), nil
}

// SignOut forgets the credential locally. Firebase has no server side
// sign-out for password sessions.
func (x *Firebase) SignOut(ctx context.Context) error {
	x.setCredential(ctx, nil)
	x.listeners.emit(ctx, nil)

	if err := x.storage.Clear(ctx, StorageKey); err != nil {
		return goerr.Wrap(err, "failed to clear credential")
	}
	return nil
}

// OnAuthStateChanged restores a stored credential on first use, then
// reports the current identity to handler from a separate goroutine.
func (x *Firebase) OnAuthStateChanged(ctx context.Context, handler interfaces.IdentityHandler) func() {
	id := x.listeners.add(handler)

	go func() {
		x.restoreOnce.Do(func() { x.restore(ctx) })

		x.mu.Lock()
		current := x.cred.identity()
		x.mu.Unlock()

		if h, ok := x.listeners.get(id); ok {
			safe.Call(ctx, "auth_state", func() { h(current) })
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { x.listeners.remove(id) })
	}
}

// Close stops the refresh timer.
func (x *Firebase) Close() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.refresh != nil {
		x.refresh.Stop()
		x.refresh = nil
	}
}

func (x *Firebase) restore(ctx context.Context) {
	logger := logging.From(ctx)

	cred, err := loadCredential(ctx, x.storage)
	if err != nil {
		logger.Warn("failed to restore credential", logging.ErrAttr(err))
		return
	}
	if cred == nil {
		return
	}

	if cred.expiresWithin(clock.Now(ctx), refreshMargin) {
		refreshed, err := x.refreshToken(ctx, cred)
		if err != nil {
			if errs.IsAuthKind(err, errs.AuthNetwork) {
				// keep the user signed in until the provider can be reached
				logger.Warn("credential refresh deferred", logging.ErrAttr(err))
				x.setCredential(ctx, cred)
				return
			}
			logger.Info("stored credential rejected", logging.ErrAttr(err))
			safe.Call(ctx, "clear_credential", func() { _ = x.storage.Clear(ctx, StorageKey) })
			return
		}
		cred = refreshed
		if err := saveCredential(ctx, x.storage, cred); err != nil {
			logger.Warn("failed to persist refreshed credential", logging.ErrAttr(err))
		}
	}

	_, err = x.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: cred.IDToken,
	}).Context(ctx).Do()
	if err != nil && classify(err) != errs.AuthNetwork {
		logger.Info("stored account is no longer valid", logging.ErrAttr(err))
		safe.Call(ctx, "clear_credential", func() { _ = x.storage.Clear(ctx, StorageKey) })
		return
	}

	x.setCredential(ctx, cred)
}

// setCredential replaces the credential and reschedules the refresh timer.
func (x *Firebase) setCredential(ctx context.Context, cred *credential) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.cred = cred
	if x.refresh != nil {
		x.refresh.Stop()
		x.refresh = nil
	}
	if cred == nil {
		return
	}

	wait := max(time.Until(cred.ExpiresAt.Add(-refreshMargin)), 0)
	x.refresh = time.AfterFunc(wait, func() { x.onRefreshTimer(context.WithoutCancel(ctx), cred) })
}

func (x *Firebase) onRefreshTimer(ctx context.Context, cred *credential) {
	x.mu.Lock()
	stale := x.cred != cred
	x.mu.Unlock()
	if stale {
		return
	}

	logger := logging.From(ctx)
	refreshed, err := x.refreshToken(ctx, cred)
	if err != nil {
		if errs.IsAuthKind(err, errs.AuthNetwork) {
			logger.Warn("token refresh failed, will retry", logging.ErrAttr(err))
			x.mu.Lock()
			if x.cred == cred {
				x.refresh = time.AfterFunc(refreshRetry, func() { x.onRefreshTimer(ctx, cred) })
			}
			x.mu.Unlock()
			return
		}

		logger.Info("session revoked by provider", logging.ErrAttr(err))
		if err := x.SignOut(ctx); err != nil {
			logger.Warn("failed to clear revoked credential", logging.ErrAttr(err))
		}
		return
	}

	if err := saveCredential(ctx, x.storage, refreshed); err != nil {
		logger.Warn("failed to persist refreshed credential", logging.ErrAttr(err))
	}
	x.setCredential(ctx, refreshed)
	logger.Debug("ID token refreshed", slog.Time("expires_at", refreshed.ExpiresAt))
}

type secureTokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type secureTokenError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (x *Firebase) secureTokenURL() string {
	base := "https://" + secureTokenHost
	if x.cfg.EmulatorHost != "" {
		base = "http://" + x.cfg.EmulatorHost + "/" + secureTokenHost
	}
	return base + "/v1/token?key=" + url.QueryEscape(x.cfg.APIKey)
}

// refreshToken exchanges the refresh token for a new ID token.
func (x *Firebase) refreshToken(ctx context.Context, cred *credential) (*credential, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cred.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.secureTokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.WrapAuthError(err, errs.AuthNetwork)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, errs.WrapAuthError(err, errs.AuthNetwork, goerr.TV(errutil.EndpointKey, secureTokenHost))
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.WrapAuthError(err, errs.AuthNetwork, goerr.TV(errutil.EndpointKey, secureTokenHost))
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr secureTokenError
		_ = json.Unmarshal(body, &apiErr)
		kind := errs.AuthNetwork
		if k, ok := kindFromMessage(apiErr.Error.Message); ok {
			kind = k
		} else if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			kind = errs.AuthInvalidCredentials
		}
		return nil, errs.NewAuthError(kind,
			goerr.TV(errutil.EndpointKey, secureTokenHost),
			goerr.V("status", resp.StatusCode),
			goerr.V("message", apiErr.Error.Message),
		)
	}

	var tokenResp secureTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, errs.WrapAuthError(err, errs.AuthNetwork, goerr.TV(errutil.EndpointKey, secureTokenHost))
	}

	refreshed, err := x.verify(ctx, tokenResp.IDToken)
	if err != nil {
		return nil, err
	}
	refreshed.RefreshToken = tokenResp.RefreshToken
	if refreshed.DisplayName == "" {
		refreshed.DisplayName = cred.DisplayName
	}
	if refreshed.ExpiresAt.IsZero() {
		if sec, err := strconv.Atoi(tokenResp.ExpiresIn); err == nil {
			refreshed.ExpiresAt = clock.Now(ctx).Add(time.Duration(sec) * time.Second)
		}
	}
	return refreshed, nil
}

// verify checks the ID token against the provider's published keys and
// extracts the identity claims.
func (x *Firebase) verify(ctx context.Context, idToken string) (*credential, error) {
	validate := []jwt.ParseOption{
		jwt.WithValidate(true),
		jwt.WithIssuer(issuerPrefix + x.cfg.ProjectID),
		jwt.WithAudience(x.cfg.ProjectID),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return clock.Now(ctx) })),
	}

	var token jwt.Token
	var err error
	if x.cfg.EmulatorHost != "" {
		token, err = jwt.ParseInsecure([]byte(idToken), validate...)
	} else {
		keySet, fetchErr := jwk.Fetch(ctx, jwksURL)
		if fetchErr != nil {
			return nil, errs.WrapAuthError(fetchErr, errs.AuthNetwork, goerr.TV(errutil.EndpointKey, jwksURL))
		}
		opts := append([]jwt.ParseOption{jwt.WithKeySet(keySet, jws.WithInferAlgorithmFromKey(true))}, validate...)
		token, err = jwt.Parse([]byte(idToken), opts...)
	}
	if err != nil {
		return nil, errs.WrapAuthError(err, errs.AuthInvalidCredentials, goerr.TV(errutil.ProviderKey, "firebase"))
	}

	if token.Subject() == "" {
		return nil, errs.NewAuthError(errs.AuthInvalidCredentials, goerr.V("reason", "token without subject"))
	}

	cred := &credential{
		UID:       types.UserID(token.Subject()),
		IDToken:   idToken,
		ExpiresAt: token.Expiration(),
	}
	if email, ok := token.Get("email"); ok {
		cred.Email, _ = email.(string)
	}
	if name, ok := token.Get("name"); ok {
		cred.DisplayName, _ = name.(string)
	}
	return cred, nil
}
