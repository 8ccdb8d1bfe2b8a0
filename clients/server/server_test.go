package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compose"
	"github.com/xob0t/creativekit/pkg/export"
	"github.com/xob0t/creativekit/pkg/fonts"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fm, err := fonts.NewManager(fonts.Options{Candidates: func(fonts.Script) []string { return nil }})
	require.NoError(t, err)
	c, err := compose.New(compose.Options{Fonts: fm, Workers: 2})
	require.NoError(t, err)
	s, err := New(Options{Composer: c})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func composeBody(t *testing.T, w, h int, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if w > 0 {
		data, err := export.Bytes(".png", export.NewSolidImage(w, h, colors.RGB{R: 46, G: 125, B: 50}))
		require.NoError(t, err)
		fw, err := mw.CreateFormFile("image", "product.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postCompose(t *testing.T, ts *httptest.Server, w, h int, fields map[string]string) (int, composeResponse) {
	t.Helper()
	body, ct := composeBody(t, w, h, fields)
	resp, err := http.Post(ts.URL+"/api/compose", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out composeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestComposeAndServeAssets(t *testing.T) {
	ts := newTestServer(t)

	status, out := postCompose(t, ts, 600, 400, map[string]string{
		"messages":      `{"en": "Hello", "es": "Hola"}`,
		"brand_colors":  "#2E7D32, #FFFFFF",
		"aspect_ratios": "1x1",
	})
	require.Equal(t, http.StatusOK, status, out.Error)
	require.Len(t, out.Variants, 2)

	v := out.Variants[0]
	assert.Equal(t, "1x1", v.AspectRatio)
	assert.Equal(t, "en", v.Language)
	assert.Equal(t, 1080, v.Width)
	require.NotNil(t, v.Compliance)
	assert.True(t, v.Compliance.Colors.Checked)
	require.NotEmpty(t, v.URL)

	resp, err := http.Get(ts.URL + v.URL)
	require.NoError(t, err)
	img, err := export.Decode(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, 1080, img.Bounds().Dx())

	resp, err = http.Get(ts.URL + "/api/assets")
	require.NoError(t, err)
	var list []assetInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Len(t, list, 4)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+v.URL, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + v.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestComposeSingleMessage(t *testing.T) {
	ts := newTestServer(t)
	status, out := postCompose(t, ts, 400, 400, map[string]string{
		"message":       "Fresh start",
		"aspect_ratios": "1:1,1x1",
	})
	require.Equal(t, http.StatusOK, status, out.Error)
	require.Len(t, out.Variants, 1)
	assert.Equal(t, "en", out.Variants[0].Language)
}

func TestComposeErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := map[string]struct {
		w, h   int
		fields map[string]string
		status int
	}{
		"no image":         {0, 0, map[string]string{"message": "x"}, http.StatusBadRequest},
		"no message":       {400, 400, nil, http.StatusBadRequest},
		"bad aspect":       {400, 400, map[string]string{"message": "x", "aspect_ratios": "4x3"}, http.StatusBadRequest},
		"bad colour":       {400, 400, map[string]string{"message": "x", "brand_colors": "green"}, http.StatusBadRequest},
		"bad messages":     {400, 400, map[string]string{"messages": "{"}, http.StatusBadRequest},
		"source too small": {100, 100, map[string]string{"message": "x", "aspect_ratios": "1x1"}, http.StatusUnprocessableEntity},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status, out := postCompose(t, ts, tt.w, tt.h, tt.fields)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestExampleBriefAndHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/brief/example")
	require.NoError(t, err)
	var brief map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&brief))
	resp.Body.Close()
	assert.Equal(t, "summer_morning_2025", brief["campaign_id"])

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewValidates(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
