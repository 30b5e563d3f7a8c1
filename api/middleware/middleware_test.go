package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name        string
		headerValue string
		wantToken   string
		wantErr     error
	}{
		{name: "missing header", wantErr: ErrMissingHeader},
		{name: "invalid scheme", headerValue: "Basic abc", wantErr: ErrInvalidFormat},
		{name: "missing token part", headerValue: "Bearer", wantErr: ErrInvalidFormat},
		{name: "empty token", headerValue: "Bearer    ", wantErr: ErrEmptyToken},
		{name: "valid bearer token", headerValue: "bearer token-123", wantToken: "token-123"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ginCtx, _ := newTestGinContext(testCase.headerValue)

			token, err := ExtractBearerToken(ginCtx)
			assert.ErrorIs(t, err, testCase.wantErr)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}

func TestAbortWithUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ginCtx, recorder := newTestGinContext("")
	AbortWithUnauthorized(ginCtx, ErrInvalidFormat)

	assert.True(t, ginCtx.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, ErrInvalidFormat.Error(), body["error"])
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newEngine := func(key string) *gin.Engine {
		r := gin.New()
		r.Use(RequestTrace())
		r.POST("/x", APIKeyAuth(key), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	cases := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{name: "no key configured", key: "", header: "", want: http.StatusNoContent},
		{name: "missing header", key: "s3cret", header: "", want: http.StatusUnauthorized},
		{name: "wrong key", key: "s3cret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "right key", key: "s3cret", header: "Bearer s3cret", want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			newEngine(tc.key).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}
}

func TestRequestTrace_KeepsIncomingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTrace())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
	assert.Equal(t, "abc-123", w.Body.String())
}

func newTestGinContext(authorizationHeader string) (*gin.Context, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	ginCtx, _ := gin.CreateTestContext(recorder)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorizationHeader != "" {
		request.Header.Set("Authorization", authorizationHeader)
	}
	ginCtx.Request = request

	return ginCtx, recorder
}
