package web

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorenas/stageinv/internal/config"
)

// startServer brings up an unconfigured instance plus a client with a cookie
// jar, mirroring a fresh install reached from a browser on localhost.
func startServer(t *testing.T) (*httptest.Server, *http.Client, *config.Env) {
	t.Helper()
	srv, env := newTestServer(t, false)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := ts.Client()
	client.Jar = jar
	return ts, client, env
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func runSetup(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	resp := postForm(t, client, baseURL+"/setup", url.Values{
		"db_host":        {"localhost"},
		"db_port":        {"3306"},
		"db_name":        {"stageinv"},
		"db_user":        {"stageinv"},
		"db_pass":        {"secret"},
		"admin_username": {"admin"},
		"admin_password": {"secret1"},
	})
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Setup complete", "setup should land on the login page with a flash")
}

func login(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()
	resp := postForm(t, client, baseURL+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	_ = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts, client, env := startServer(t)

	// Before setup everything funnels to the setup page.
	resp, err := client.Get(ts.URL + "/items")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, "First-run setup")

	runSetup(t, client, ts.URL)

	// The config file records the connection settings.
	cfg, err := config.NewStore(env.ConfigPath).Load()
	require.NoError(t, err)
	assert.True(t, cfg.Configured)
	assert.Equal(t, "localhost", cfg.DBHost)

	// Setup is gone once configured.
	resp, err = client.Get(ts.URL + "/setup")
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Contains(t, body, "Log in")

	// Wrong password is turned away.
	resp = postForm(t, client, ts.URL+"/login", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	})
	body = readBody(t, resp)
	assert.Contains(t, body, "Invalid username or password")

	login(t, client, ts.URL, "admin", "secret1")

	// Create an item and fetch its printable label.
	resp = postForm(t, client, ts.URL+"/items/new", url.Values{
		"inventory_id": {"INV-001"},
		"name":         {"Tripod"},
		"manufacturer": {"Manfrotto"},
	})
	body = readBody(t, resp)
	require.Contains(t, body, "INV-001")

	resp, err = client.Get(ts.URL + "/labels/INV-001.png")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, 1181, img.Bounds().Dx())
	assert.Equal(t, 637, img.Bounds().Dy())

	resp, err = client.Get(ts.URL + "/labels/GHOST.png")
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Editing regenerates the stored QR label.
	resp = postForm(t, client, ts.URL+"/items/INV-001/edit", url.Values{
		"name": {"Heavy Tripod"},
	})
	body = readBody(t, resp)
	require.Contains(t, body, "Heavy Tripod")
	_, err = os.Stat(filepath.Join(env.LabelsDir, "INV-001.png"))
	assert.NoError(t, err, "edit should write a regenerated label")

	// Duplicate IDs are rejected at the form.
	resp = postForm(t, client, ts.URL+"/items/new", url.Values{
		"inventory_id": {"INV-001"},
		"name":         {"Clone"},
	})
	body = readBody(t, resp)
	assert.Contains(t, body, "already exists")

	resp, err = client.Get(ts.URL + "/reports/items.pdf")
	require.NoError(t, err)
	pdfBody := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(pdfBody, "%PDF"))
}

func TestProductionFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts, client, _ := startServer(t)
	runSetup(t, client, ts.URL)
	login(t, client, ts.URL, "admin", "secret1")

	resp := postForm(t, client, ts.URL+"/items/new", url.Values{
		"inventory_id": {"INV-010"},
		"name":         {"Fog machine"},
	})
	_ = readBody(t, resp)

	resp = postForm(t, client, ts.URL+"/productions/new", url.Values{
		"name": {"Autumn Gala"},
		"date": {"2026-09-15"},
	})
	body := readBody(t, resp)
	require.Contains(t, body, "Autumn Gala")
	require.Contains(t, body, "2026-09-15")

	// A malformed date redisplays the form.
	resp = postForm(t, client, ts.URL+"/productions/new", url.Values{
		"name": {"Bad Date"},
		"date": {"15/09/2026"},
	})
	body = readBody(t, resp)
	assert.Contains(t, body, "YYYY-MM-DD")

	resp = postForm(t, client, ts.URL+"/productions/1/assign", url.Values{
		"inventory_id": {"INV-010"},
	})
	body = readBody(t, resp)
	require.Contains(t, body, "Item assigned")
	require.Contains(t, body, "INV-010")

	// Assigning twice stays a single row and does not error.
	resp = postForm(t, client, ts.URL+"/productions/1/assign", url.Values{
		"inventory_id": {"INV-010"},
	})
	body = readBody(t, resp)
	assert.NotContains(t, body, "Could not assign")

	resp, err := client.Get(ts.URL + "/reports/production/1.pdf")
	require.NoError(t, err)
	pdfBody := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(pdfBody, "%PDF"))

	resp, err = client.Get(ts.URL + "/reports/production/999.pdf")
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postForm(t, client, ts.URL+"/productions/1/remove", url.Values{
		"inventory_id": {"INV-010"},
	})
	body = readBody(t, resp)
	assert.Contains(t, body, "Item removed")
}

func TestAdminLogoUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts, client, env := startServer(t)
	runSetup(t, client, ts.URL)
	login(t, client, ts.URL, "admin", "secret1")

	resp, err := client.Get(ts.URL + "/admin/settings")
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Contains(t, body, "No logo configured")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	logo := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			logo.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	require.NoError(t, png.Encode(part, logo))
	require.NoError(t, mw.Close())

	resp, err = client.Post(ts.URL+"/admin/settings", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Logo updated")

	cfg, err := config.NewStore(env.ConfigPath).Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.UploadsDir, "company_logo.png"), cfg.LogoPath)

	// The stored logo is publicly reachable for page embedding.
	resp, err = client.Get(ts.URL + "/uploads/company_logo.png")
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestNonAdminBlockedFromSettings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts, client, _ := startServer(t)

	resp := postForm(t, client, ts.URL+"/setup", url.Values{
		"db_host":          {"localhost"},
		"db_port":          {"3306"},
		"db_name":          {"stageinv"},
		"db_user":          {"stageinv"},
		"db_pass":          {"secret"},
		"admin_username":   {"admin"},
		"admin_password":   {"secret1"},
		"default_username": {"crew"},
		"default_password": {"secret2"},
	})
	_ = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	login(t, client, ts.URL, "crew", "secret2")

	resp, err := client.Get(ts.URL + "/admin/settings")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, "Administrator access required")
}
