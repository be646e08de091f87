package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"turbineops/models"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectStore struct {
	mock.Mock
}

var _ storage.ObjectStore = (*mockObjectStore)(nil)

func (m *mockObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(key, string(body), size)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error) {
	args := m.Called(key, ttl)
	u, _ := args.Get(0).(*url.URL)
	return u, args.Error(1)
}

func (e *testEnv) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.tokens[models.RoleEngineer])
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestPackageStorageNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	turbine := env.createTurbine(t, "T-1000")
	inspection := env.createInspection(t, turbine.ID, "2024-01-15")

	w := env.upload(t, "/api/inspections/"+inspection.ID+"/package", "scan.zip", "zip")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(t, http.MethodGet, "/api/inspections/"+inspection.ID+"/package", models.RoleViewer, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadAndDownloadPackage(t *testing.T) {
	objects := new(mockObjectStore)
	env := newTestEnv(t, withObjects(objects))
	turbine := env.createTurbine(t, "T-1000")
	inspection := env.createInspection(t, turbine.ID, "2024-01-15")
	path := "/api/inspections/" + inspection.ID + "/package"

	w := env.do(t, http.MethodGet, path, models.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No package stored for inspection "+inspection.ID, decode[models.ErrorResponse](t, w).Message)

	w = env.upload(t, path, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file is required", decode[models.ErrorResponse](t, w).Message)

	w = env.upload(t, "/api/inspections/missing/package", "scan.zip", "zip")
	assert.Equal(t, http.StatusNotFound, w.Code)

	keyPrefix := "inspections/" + inspection.ID + "/"
	isKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, keyPrefix) && strings.HasSuffix(key, "-scan.zip")
	})
	objects.On("Put", isKey, "drone images", int64(len("drone images"))).
		Return("http://objects.local/packages/"+keyPrefix+"scan.zip", nil).Once()

	w = env.upload(t, path, "scan.zip", "drone images")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Inspection](t, w)
	require.NotNil(t, updated.RawPackageURL)
	assert.Equal(t, "http://objects.local/packages/"+keyPrefix+"scan.zip", *updated.RawPackageURL)

	signed, err := url.Parse("http://objects.local/packages/signed?X-Amz-Signature=abc")
	require.NoError(t, err)
	objects.On("PresignGet", isKey, packageURLTTL).Return(signed, nil).Once()

	w = env.do(t, http.MethodGet, path, models.RoleViewer, nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, signed.String(), w.Header().Get("Location"))

	objects.AssertExpectations(t)
}

// slowObjectStore takes longer to store a package than one request query may run.
type slowObjectStore struct {
	delay time.Duration
}

func (s slowObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	select {
	case <-time.After(s.delay):
		return "http://objects.local/packages/" + key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s slowObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error) {
	return url.Parse("http://objects.local/packages/" + key)
}

func TestUploadOutlivingQueryBudget(t *testing.T) {
	utils.SetQueryTimeouts(100*time.Millisecond, 5*time.Second)
	t.Cleanup(func() { utils.SetQueryTimeouts(utils.DefaultQueryTimeout, utils.DefaultJobTimeout) })

	env := newTestEnv(t, withObjects(slowObjectStore{delay: 300 * time.Millisecond}))
	turbine := env.createTurbine(t, "T-1000")
	inspection := env.createInspection(t, turbine.ID, "2024-01-15")

	w := env.upload(t, "/api/inspections/"+inspection.ID+"/package", "capture.zip", "drone images")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Inspection](t, w)
	require.NotNil(t, updated.RawPackageURL)
	assert.True(t, strings.HasSuffix(*updated.RawPackageURL, "-capture.zip"))

	stored, err := storage.GetInspection(context.Background(), env.db, inspection.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PackageKey)
	assert.True(t, strings.HasPrefix(*stored.PackageKey, "inspections/"+inspection.ID+"/"))
}
