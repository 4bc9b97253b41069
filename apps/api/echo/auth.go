package echoapi

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/user"
	firebasesvc "github.com/orbitaplataforma/orbita/services/firebase"
)

const (
	contextClaimsKey = "claims"
	contextUserKey   = "user"
	tokenAudience    = "orbita"
)

var signingMethod = jwt.SigningMethodHS256

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"` // -> GESTOR | MENTOR | ALUNO dashboard
}

func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()

	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// authenticator resolves the bearer of a request. Platform tokens are tried first, then Firebase ID tokens.
type authenticator struct {
	conf     *core.Config
	usrSvc   user.Service
	verifier firebasesvc.Verifier
}

// middleware rejects requests without a valid bearer token and stores the claims and user in the context.
func (a *authenticator) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tokenStr, ok := bearerToken(ctx)
		if !ok {
			return errMissingToken
		}

		claims, usr, err := a.authenticate(ctx.Request().Context(), tokenStr)
		if err != nil {
			return err
		}
		if !usr.IsActive {
			return errAccountDeactivated
		}

		ctx.Set(contextClaimsKey, *claims)
		ctx.Set(contextUserKey, usr)
		return next(ctx)
	}
}

func (a *authenticator) authenticate(ctx context.Context, tokenStr string) (*Claims, user.User, error) {
	claims, jwtErr := parseToken(a.conf, tokenStr)
	if jwtErr == nil {
		usr, err := a.usrSvc.GetByID(ctx, claims.Subject)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return nil, user.User{}, errUnauthorized
			}
			return nil, user.User{}, errors.Wrap(err, "finding user by ID")
		}
		return claims, usr, nil
	}

	if a.verifier == nil {
		return nil, user.User{}, errInvalidToken
	}
	ident, err := a.verifier.VerifyIDToken(ctx, tokenStr)
	if err != nil {
		return nil, user.User{}, errInvalidToken
	}
	usr, err := a.firebaseUser(ctx, ident)
	if err != nil {
		return nil, user.User{}, err
	}
	return GetUserClaims(a.conf, usr), usr, nil
}

// firebaseUser maps a Firebase identity to a local account: by UID, then by verified e-mail, linking the UID on first use.
func (a *authenticator) firebaseUser(ctx context.Context, ident firebasesvc.Identity) (user.User, error) {
	usr, err := a.usrSvc.GetByFirebaseUID(ctx, ident.UID)
	if err == nil {
		return usr, nil
	}
	if errors.Cause(err) != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, "finding user by firebase UID")
	}

	// anyone can sign up to Firebase with somebody else's address
	if ident.Email == "" || !ident.EmailVerified {
		return user.User{}, errUnauthorized
	}
	usr, err = a.usrSvc.GetByEmail(ctx, ident.Email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if usr.FirebaseUID.Valid && usr.FirebaseUID.String != ident.UID {
		return user.User{}, errUnauthorized // linked to another firebase account
	}

	usr, err = a.usrSvc.LinkFirebaseUID(ctx, usr, ident.UID)
	return usr, errors.Wrap(err, "linking firebase UID")
}

func bearerToken(ctx echo.Context) (string, bool) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authenticate(ctx context.Context, conf *core.Config, email, pwd string, svc user.Service) (*Claims, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return nil, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetUserClaims(conf, usr), nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

func refreshToken(ctx echo.Context, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, GetUserClaims(conf, usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
