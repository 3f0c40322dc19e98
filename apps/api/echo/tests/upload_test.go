package tests

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uploadsvc "github.com/Smarcastic/studesq-mvp/services/upload"
)

func Test_uploadApi_serve(t *testing.T) {
	env := setup(t)
	f := newFixture(t, env)

	dir := filepath.Join(env.conf.Uploads.Dir, f.aliceP.ID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report_1.png"), []byte("png"), 0o644))
	bobDir := filepath.Join(env.conf.Uploads.Dir, f.bobP.ID)
	require.NoError(t, os.MkdirAll(bobDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bobDir, "secret_1.pdf"), []byte("pdf"), 0o644))

	path := fmt.Sprintf("/api/uploads/%s/report_1.png", f.aliceP.ID)
	notFound := failure(t, uploadsvc.ErrFileNotFound.Error(), "NOT_FOUND")

	tests := []httpTest{
		{"unauthenticated", http.MethodGet, path, nil, nil, http.StatusUnauthorized, unauthorized(t), nil},
		{"other student", http.MethodGet, path, nil, env.sessionCookie(t, f.bob), http.StatusForbidden, forbidden(t), nil},
		{"pending parent", http.MethodGet, path, nil, env.sessionCookie(t, f.pending), http.StatusForbidden, forbidden(t), nil},
		{"missing file", http.MethodGet, fmt.Sprintf("/api/uploads/%s/nope.pdf", f.aliceP.ID), nil, env.sessionCookie(t, f.alice), http.StatusNotFound, notFound, nil},
		{"traversal", http.MethodGet, fmt.Sprintf("/api/uploads/%s/../%s/secret_1.pdf", f.aliceP.ID, f.bobP.ID), nil, env.sessionCookie(t, f.alice), http.StatusForbidden, nil, nil},
	}
	runTests(t, env, tests)

	for _, usr := range []struct {
		name   string
		cookie *http.Cookie
	}{
		{"owner", env.sessionCookie(t, f.alice)},
		{"verified parent", env.sessionCookie(t, f.parent)},
		{"admin", env.sessionCookie(t, f.admin)},
	} {
		t.Run(usr.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, usr.cookie)
			env.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "png", rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.Equal(t, `inline; filename="report_1.png"`, rec.Header().Get("Content-Disposition"))
			assert.Equal(t, "private, max-age=3600", rec.Header().Get("Cache-Control"))
		})
	}
}
