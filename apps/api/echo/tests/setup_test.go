package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	. "github.com/orbitaplataforma/orbita/apps/api/echo"
	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/study"
	"github.com/orbitaplataforma/orbita/core/tenant"
	"github.com/orbitaplataforma/orbita/core/user"
	emailsvc "github.com/orbitaplataforma/orbita/services/email"
	firebasesvc "github.com/orbitaplataforma/orbita/services/firebase"
	logsvc "github.com/orbitaplataforma/orbita/services/logger"
	sqlxrepos "github.com/orbitaplataforma/orbita/storage/database/sqlx"
	"github.com/orbitaplataforma/orbita/testutil"
)

const testPwd = "Sup3r!Secret"

var (
	conf      *core.Config
	usrRepo   user.Repository
	tntRepo   tenant.Repository
	studyRepo study.Repository
	mailSvc   *emailsvc.MockService
	verifier  fakeVerifier

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

// fakeVerifier accepts the Firebase ID tokens it holds.
type fakeVerifier map[string]firebasesvc.Identity

func (v fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (firebasesvc.Identity, error) {
	if ident, ok := v[idToken]; ok {
		return ident, nil
	}
	return firebasesvc.Identity{}, errors.New("invalid firebase ID token")
}

func setup(t *testing.T) Server {
	conf = testutil.NewConfig()

	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)
	tntRepo = sqlxrepos.NewTenantRepository(db)
	studyRepo = sqlxrepos.NewStudyRepository(db)

	// set up services
	mailSvc = emailsvc.NewMockService(conf)
	verifier = make(fakeVerifier)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)

	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("API", false), conf)
	logger.Enable(false)
	validate, translator := testutil.NewValidator()

	// set up server
	return NewServer(
		&Options{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        usrSvc,
			TenantSvc:      tenant.NewService(db, tntRepo, usrSvc, logger),
			StudySvc:       study.NewService(studyRepo, conf),
			Verifier:       verifier,
			DisableReqLogs: true,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	if _, ok := j2.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runTests(t *testing.T, app Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
