package echoapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

const (
	contextSessionKey = "session"
	tokenAudience     = "elimu-web"
)

var errInvalidSession = errors.New("invalid session")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Session is the resolved authenticated user of a request.
type Session struct {
	User   user.User
	Token  string
	Claims Claims
}

// TokenIssuer signs & verifies session tokens.
type TokenIssuer struct {
	key               []byte
	issuer            string
	expiration        time.Duration
	refreshExpiration time.Duration
}

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{
		key:               []byte(conf.SecretKey),
		issuer:            conf.AppName,
		expiration:        conf.Server.JWTExpirationDelta,
		refreshExpiration: conf.Server.JWTRefreshExpirationDelta,
	}
}

// Claims returns the claims of a fresh token for usr.
// origIat is the issue time of the first token of the session, when refreshing.
func (ti *TokenIssuer) Claims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.issuer,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(ti.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// Generate generates a signed JWT token string representing the user Claims.
func (ti *TokenIssuer) Generate(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Parse verifies the token signature & expiry and returns its claims.
func (ti *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidSession
	}
	if !claims.VerifyAudience(tokenAudience, true) || claims.Subject == "" {
		return nil, errInvalidSession
	}
	return claims, nil
}

// RefreshExpired reports whether the session started by claims can no longer be refreshed.
func (ti *TokenIssuer) RefreshExpired(claims Claims) bool {
	return time.Now().After(time.Unix(claims.OrigIssuedAt, 0).Add(ti.refreshExpiration))
}

// getSession returns the session resolved by sessionMiddleware, or nil.
func getSession(ctx echo.Context) *Session {
	sess, _ := ctx.Get(contextSessionKey).(*Session)
	return sess
}

// requestToken reads the session token from the session cookie, or from the Authorization header.
func (s *Server) requestToken(ctx echo.Context) (token string, fromCookie bool) {
	if c, err := ctx.Cookie(s.conf.Server.SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:]), false
	}
	return "", false
}

func (s *Server) resolveSession(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	usr, err := s.deps.UserSvc.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errInvalidSession
		}
		return nil, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return nil, errInvalidSession
	}
	return &Session{User: usr, Token: token, Claims: *claims}, nil
}

// sessionMiddleware resolves the session of every request.
// Invalid tokens mean "no session"; an invalid session cookie gets cleared.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, fromCookie := s.requestToken(ctx)
		if token != "" {
			sess, err := s.resolveSession(ctx.Request().Context(), token)
			switch {
			case err == nil:
				ctx.Set(contextSessionKey, sess)
			case errors.Cause(err) == errInvalidSession:
				if fromCookie {
					s.clearSessionCookie(ctx)
				}
			default:
				return errors.Wrap(err, "resolving session")
			}
		}
		return next(ctx)
	}
}

func (s *Server) setSessionCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.conf.Server.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.conf.Server.JWTExpirationDelta / time.Second),
		HttpOnly: true,
		Secure:   s.conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.conf.Server.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// authenticate checks the credentials of an active user and records the login.
func (s *Server) authenticate(ctx context.Context, uname, pwd string) (user.User, error) {
	usr, err := s.deps.UserSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	usr, err = s.deps.UserSvc.SetLastLogin(ctx, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// login starts a session for usr: the token is set as session cookie and returned.
func (s *Server) login(ctx echo.Context, usr user.User) (string, error) {
	token, err := s.tokens.Generate(s.tokens.Claims(usr))
	if err != nil {
		return "", errors.Wrap(err, "generating token")
	}
	s.setSessionCookie(ctx, token)
	ctx.Set(contextSessionKey, &Session{User: usr, Token: token})
	return token, nil
}

func (s *Server) refreshToken(ctx echo.Context) (string, error) {
	sess := getSession(ctx)
	if sess == nil {
		return "", errUnauthorized
	}
	if s.tokens.RefreshExpired(sess.Claims) {
		return "", errRefreshExpired
	}
	token, err := s.tokens.Generate(s.tokens.Claims(sess.User, sess.Claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

// authToken returns the session token to client scripts: {"token": null} without a session.
func (s *Server) authToken(ctx echo.Context) error {
	var res struct {
		Token *string `json:"token"`
	}
	if sess := getSession(ctx); sess != nil {
		res.Token = &sess.Token
	}
	ctx.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return ctx.JSON(http.StatusOK, res)
}
