package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/internal/service"
	"kama_chat_hub/pkg/errorx"
)

// uploadField multipart 表单中的文件字段名
const uploadField = "file"

// MediaHandler 文件与头像上传
type MediaHandler struct {
	mediaSvc service.MediaService
}

// NewMediaHandler 创建上传处理器实例
func NewMediaHandler(mediaSvc service.MediaService) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// Upload 上传聊天文件
// POST /media/upload (multipart/form-data, 字段 file)
// 响应: respond.UploadRespond
func (h *MediaHandler) Upload(c *gin.Context) {
	h.upload(c, h.mediaSvc.UploadFile)
}

// UploadAvatar 上传头像图片
// POST /media/avatar (multipart/form-data, 字段 file)
func (h *MediaHandler) UploadAvatar(c *gin.Context) {
	h.upload(c, h.mediaSvc.UploadAvatar)
}

func (h *MediaHandler) upload(c *gin.Context, save func(*multipart.FileHeader) (*respond.UploadRespond, error)) {
	// 多留 1MB 给表单其余部分，超限时 FormFile 直接失败
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.mediaSvc.MaxSize()+1<<20)
	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "请选择要上传的文件"))
		return
	}
	data, err := save(fileHeader)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
