package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kama_chat_hub/internal/dto/request"
	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/pkg/errorx"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"business error", errorx.ErrNotAMember, errorx.CodeNotAMember},
		{"wrapped business error", errorx.Wrap(errors.New("boom"), errorx.CodeForbidden, "无权执行该操作"), errorx.CodeForbidden},
		{"db error", errorx.New(errorx.CodeDBError, "db"), errorx.CodeServerBusy},
		{"plain error", errors.New("boom"), errorx.CodeServerBusy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
			HandleError(c, tc.err)
			assert.Equal(t, float64(tc.code), decode(t, w)["code"])
		})
	}
}

func TestHandleParamErrorTranslatesFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, InitTrans("zh"))

	r := gin.New()
	r.POST("/p", func(c *gin.Context) {
		var req request.AvatarRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleParamError(c, err)
			return
		}
		HandleSuccess(c, nil)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", bytes.NewBufferString(`{"conversation_id":"C1","avatar":"  "}`)))
	body := decode(t, w)
	assert.Equal(t, float64(errorx.CodeInvalidParam), body["code"])
	msg, ok := body["msg"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, msg, "avatar")

	// JSON 格式错误不经过翻译
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", bytes.NewBufferString(`{`)))
	body = decode(t, w)
	assert.Equal(t, errorx.ErrInvalidParam.Msg, body["msg"])
}

type fakeMedia struct {
	got string
}

func (f *fakeMedia) UploadFile(fh *multipart.FileHeader) (*respond.UploadRespond, error) {
	f.got = fh.Filename
	return &respond.UploadRespond{Url: "/static/files/x.txt", Type: "file", Name: fh.Filename, Size: fh.Size}, nil
}

func (f *fakeMedia) UploadAvatar(*multipart.FileHeader) (*respond.UploadRespond, error) {
	return nil, errorx.New(errorx.CodeValidation, "头像只支持图片")
}

func (f *fakeMedia) MaxSize() int64 { return 1 << 20 }

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestMediaUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	media := &fakeMedia{}
	h := NewMediaHandler(media)
	r := gin.New()
	r.POST("/media/upload", h.Upload)
	r.POST("/media/avatar", h.UploadAvatar)

	body, ct := multipartBody(t, "file", "notes.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	rsp := decode(t, w)
	assert.Equal(t, float64(errorx.CodeSuccess), rsp["code"])
	assert.Equal(t, "notes.txt", media.got)

	// 字段名不对
	body, ct = multipartBody(t, "upload", "notes.txt", []byte("hello"))
	req = httptest.NewRequest(http.MethodPost, "/media/upload", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, float64(errorx.CodeInvalidParam), decode(t, w)["code"])

	body, ct = multipartBody(t, "file", "a.txt", []byte("hello"))
	req = httptest.NewRequest(http.MethodPost, "/media/avatar", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, float64(errorx.CodeValidation), decode(t, w)["code"])
}

func TestWsConnectWithoutGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/wss", NewWsHandler(nil).Connect)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wss", nil))
	assert.Equal(t, float64(errorx.CodeServerBusy), decode(t, w)["code"])
}
