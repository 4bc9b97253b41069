package tests

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/orbitaplataforma/orbita/apps/api/echo"
	"github.com/orbitaplataforma/orbita/core/user"
	firebasesvc "github.com/orbitaplataforma/orbita/services/firebase"
	"github.com/orbitaplataforma/orbita/testutil"
)

var resetLinkRegex = regexp.MustCompile(`\?uid=([A-Za-z0-9_-]+)&token=([A-Za-z0-9_-]+)`)

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	gestor := testutil.CreateUser(t, usrRepo, "Ana Gestora", "ana@orbita.test", testPwd, user.RoleGestor, true)
	testutil.CreateUser(t, usrRepo, "Caio Inativo", "caio@orbita.test", testPwd, user.RoleMentor, false)
	testutil.CreateUser(t, usrRepo, "Convidado", "convite@orbita.test", "", user.RoleAluno, true)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Email: reqMsg, Password: reqMsg}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "ana", Password: testPwd}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "lol@orbita.test", Password: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: gestor.Email, Password: "Wr0ng!Password"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "invited user without password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "convite@orbita.test", Password: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "caio@orbita.test", Password: testPwd}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/login"
	}
	runTests(t, app, tests)

	t.Run("valid credentials", func(t *testing.T) {
		body := marchallObj(t, echoapi.LoginRequest{Email: "  ANA@orbita.test ", Password: testPwd})
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, user.RoleGestor, resp.Role)

		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: gestor.ID})
		require.NoError(t, err)
		assert.True(t, usr.LastLogin.Valid, "last login must be recorded")

		// the token opens the API
		req, rec = newAuthRequest(http.MethodGet, "/v1/auth/me", resp.Token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_authApi_me(t *testing.T) {
	app := setup(t)

	aluno := testutil.CreateUser(t, usrRepo, "Bia Aluna", "bia@orbita.test", testPwd, user.RoleAluno, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog@orbita.test", testPwd, user.RoleAluno, false)
	ghost := user.User{ID: "8b0f5b7e-4d9b-4c8e-9a59-1f3f1f0f6a01", Role: user.RoleAluno}

	otherConf := *conf
	otherConf.SecretKey = "another-secret"
	forged, err := echoapi.GenerateToken(&otherConf, echoapi.GetUserClaims(&otherConf, aluno))
	require.NoError(t, err)

	expiredClaims := echoapi.GetUserClaims(conf, aluno)
	expiredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expired, err := echoapi.GenerateToken(conf, expiredClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Garbage token", token: "lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "Forged token", token: forged, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "Expired token", token: expired, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{
			name: "Deleted user", token: getToken(t, ghost), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{
			name: "Inactive user", token: getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "Current user", token: getToken(t, aluno), wantData: marchallObj(t, aluno)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].path = "/v1/auth/me"
	}
	runTests(t, app, tests)
}

func Test_authApi_firebase(t *testing.T) {
	app := setup(t)

	mentor := testutil.CreateUser(t, usrRepo, "Rui Mentor", "rui@orbita.test", "", user.RoleMentor, true)
	verifier["fb-rui"] = firebasesvc.Identity{UID: "uid-rui", Email: "rui@orbita.test", EmailVerified: true}
	verifier["fb-rui-other"] = firebasesvc.Identity{UID: "uid-impostor", Email: "rui@orbita.test", EmailVerified: true}
	verifier["fb-stranger"] = firebasesvc.Identity{UID: "uid-stranger", Email: "stranger@orbita.test", EmailVerified: true}
	verifier["fb-no-email"] = firebasesvc.Identity{UID: "uid-anon"}

	gestor := testutil.CreateUser(t, usrRepo, "Gil Gestor", "gil@orbita.test", "", user.RoleGestor, true)
	verifier["fb-gil-unverified"] = firebasesvc.Identity{UID: "uid-squatter", Email: "gil@orbita.test", EmailVerified: false}

	unauthenticated := marchallObj(t, httpErr{Error: "user not authenticated"})
	tests := []httpTest{
		{name: "unknown firebase token", token: "fb-lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "unknown e-mail", token: "fb-stranger", wantCode: http.StatusUnauthorized, wantData: unauthenticated},
		{name: "no e-mail", token: "fb-no-email", wantCode: http.StatusUnauthorized, wantData: unauthenticated},
		{name: "unverified e-mail", token: "fb-gil-unverified", wantCode: http.StatusUnauthorized, wantData: unauthenticated},
		{name: "matched by e-mail", token: "fb-rui"},
		{name: "matched by UID", token: "fb-rui"},
		{name: "e-mail already linked to another UID", token: "fb-rui-other", wantCode: http.StatusUnauthorized, wantData: unauthenticated},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].path = "/v1/auth/me"
	}
	runTests(t, app, tests)

	linked, err := usrRepo.GetUser(context.Background(), user.GetFilter{FirebaseUID: "uid-rui"})
	require.NoError(t, err)
	assert.Equal(t, mentor.ID, linked.ID)

	// the unverified identity was never linked to the gestor
	_, err = usrRepo.GetUser(context.Background(), user.GetFilter{FirebaseUID: "uid-squatter"})
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	gil, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: gestor.ID})
	require.NoError(t, err)
	assert.False(t, gil.FirebaseUID.Valid)
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)

	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog@orbita.test", testPwd, user.RoleAluno, false)
	aluno := testutil.CreateUser(t, usrRepo, "Bia Aluna", "bia@orbita.test", testPwd, user.RoleAluno, true)

	// older than the refresh threshold
	unrefreshable := echoapi.GetUserClaims(conf, aluno, time.Now().Add(-2*conf.Server.JWTRefreshExpirationDelta).Unix())
	unrefreshableToken, err := echoapi.GenerateToken(conf, unrefreshable)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/token-refresh"
	}
	runTests(t, app, tests)

	t.Run("Token refreshed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", getToken(t, aluno))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		// cannot guess new token.. just check that it's not empty
		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, user.RoleAluno, resp.Role)
	})
}

func Test_authApi_resetPassword(t *testing.T) {
	app := setup(t)

	aluno := testutil.CreateUser(t, usrRepo, "Bia Aluna", "bia@orbita.test", testPwd, user.RoleAluno, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog@orbita.test", testPwd, user.RoleAluno, false)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{name: "unknown email", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@orbita.test"}), wantData: successData, extra: false},
		{name: "inactive user", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "ndog@orbita.test"}), wantData: successData, extra: false},
		{name: "known email", body: marchallObj(t, echoapi.PasswordResetRequest{Email: aluno.Email}), wantData: successData, extra: true},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/password-reset"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			mailSvc.Reset()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if emailSent, ok := tt.extra.(bool); ok {
				sent := mailSvc.SentMessages()
				if !emailSent {
					assert.Empty(t, sent)
					return
				}
				require.Len(t, sent, 1)
				msg := sent[0]
				assert.Equal(t, aluno.Email, msg.To[0].Address)
				assert.Contains(t, msg.TextContent, aluno.Name)
				assert.Contains(t, msg.HTMLContent, aluno.Name)
				assert.Regexp(t, resetLinkRegex, msg.TextContent)
			}
		})
	}
}

func Test_authApi_confirmPasswordReset(t *testing.T) {
	app := setup(t)

	aluno := testutil.CreateUser(t, usrRepo, "Bia Aluna", "bia@orbita.test", testPwd, user.RoleAluno, true)

	// get a valid link the way users do
	req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset", marchallObj(t, echoapi.PasswordResetRequest{Email: aluno.Email}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	match := resetLinkRegex.FindStringSubmatch(sent[0].TextContent)
	require.Len(t, match, 3)
	validUID, validToken := match[1], match[2]

	reqMsg := "this field is required"
	invalidLink := marchallObj(t, httpErr{Error: "the reset link is invalid or has expired"})
	newPwd := "N0va!Senha#2024"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: reqMsg, PasswordConfirm: reqMsg}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: newPwd, PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest, wantData: invalidLink,
			body: marchallObj(t, user.ResetUserPassword{Token: validToken, UID: "bG9s", Password: newPwd, PasswordConfirm: newPwd}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest, wantData: invalidLink,
			body: marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig", UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
		},
		{
			name: "weak password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "senha", PasswordConfirm: "senha"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 8 characters"}),
		},
		{
			name: "valid link", body: marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "link is single-use", wantCode: http.StatusBadRequest, wantData: invalidLink,
			body: marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/password-reset-confirm"
	}
	runTests(t, app, tests)

	refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: aluno.ID})
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword(newPwd))
}
