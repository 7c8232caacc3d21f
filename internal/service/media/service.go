// Package media 聊天文件与头像上传，落盘到本地静态目录
package media

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kama_chat_hub/internal/dto/respond"
	"kama_chat_hub/pkg/constants"
	"kama_chat_hub/pkg/errorx"
)

const (
	fileURLPrefix   = "/static/files/"
	avatarURLPrefix = "/static/avatars/"
	sniffLen        = 512
)

var avatarMimes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// mediaService 上传服务实现
type mediaService struct {
	fileDir   string
	avatarDir string
	maxSize   int64
}

// NewMediaService maxSize <= 0 时使用 FILE_MAX_SIZE
func NewMediaService(fileDir, avatarDir string, maxSize int64) *mediaService {
	if maxSize <= 0 {
		maxSize = constants.FILE_MAX_SIZE
	}
	return &mediaService{fileDir: fileDir, avatarDir: avatarDir, maxSize: maxSize}
}

// MaxSize 单个文件大小上限
func (m *mediaService) MaxSize() int64 {
	return m.maxSize
}

// UploadFile 聊天附件，类型由文件头推断
func (m *mediaService) UploadFile(fileHeader *multipart.FileHeader) (*respond.UploadRespond, error) {
	name, contentType, err := m.saveFile(fileHeader, m.fileDir)
	if err != nil {
		return nil, err
	}
	zap.L().Info("upload file success", zap.String("filename", name), zap.Int64("size", fileHeader.Size))
	return &respond.UploadRespond{
		Url:  fileURLPrefix + name,
		Type: KindOf(contentType),
		Name: fileHeader.Filename,
		Size: fileHeader.Size,
	}, nil
}

// UploadAvatar 头像只接受图片
func (m *mediaService) UploadAvatar(fileHeader *multipart.FileHeader) (*respond.UploadRespond, error) {
	name, _, err := m.saveFile(fileHeader, m.avatarDir, avatarMimes...)
	if err != nil {
		return nil, err
	}
	zap.L().Info("upload avatar success", zap.String("filename", name))
	return &respond.UploadRespond{
		Url:  avatarURLPrefix + name,
		Type: constants.MSG_IMAGE,
		Name: fileHeader.Filename,
		Size: fileHeader.Size,
	}, nil
}

// KindOf 按 MIME 大类映射为消息类型
func KindOf(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return constants.MSG_IMAGE
	case strings.HasPrefix(contentType, "audio/"):
		return constants.MSG_AUDIO
	case strings.HasPrefix(contentType, "video/"):
		return constants.MSG_VIDEO
	default:
		return constants.MSG_FILE
	}
}

// saveFile 读取文件头做 Magic Bytes 校验后落盘，返回新文件名与探测到的类型
func (m *mediaService) saveFile(fileHeader *multipart.FileHeader, dstDir string, allowedMimes ...string) (string, string, error) {
	if fileHeader.Size > m.maxSize {
		return "", "", errorx.Newf(errorx.CodeValidation, "文件不能超过 %d MB", m.maxSize>>20)
	}
	src, err := fileHeader.Open()
	if err != nil {
		zap.L().Error("open upload error", zap.Error(err))
		return "", "", errorx.ErrServerBusy
	}
	defer src.Close()

	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(src, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		zap.L().Error("read upload error", zap.Error(err))
		return "", "", errorx.ErrServerBusy
	}
	if n == 0 {
		return "", "", errorx.New(errorx.CodeValidation, "文件为空")
	}
	contentType := http.DetectContentType(buffer[:n])

	if len(allowedMimes) > 0 && !hasPrefix(contentType, allowedMimes) {
		return "", "", errorx.Newf(errorx.CodeValidation, "不支持的文件类型: %s", contentType)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		zap.L().Error("seek upload error", zap.Error(err))
		return "", "", errorx.ErrServerBusy
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		zap.L().Error("create upload dir error", zap.String("dir", dstDir), zap.Error(err))
		return "", "", errorx.ErrServerBusy
	}
	newFileName := uuid.NewString() + cleanExt(fileHeader.Filename)
	dst := filepath.Join(dstDir, newFileName)

	out, err := os.Create(dst)
	if err != nil {
		zap.L().Error("create upload file error", zap.String("path", dst), zap.Error(err))
		return "", "", errorx.ErrServerBusy
	}
	if _, err := io.Copy(out, io.LimitReader(src, m.maxSize)); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		zap.L().Error("write upload file error", zap.String("path", dst), zap.Error(err))
		return "", "", errorx.ErrServerBusy
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		zap.L().Error("close upload file error", zap.String("path", dst), zap.Error(err))
		return "", "", errorx.ErrServerBusy
	}
	return newFileName, contentType, nil
}

func hasPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// cleanExt 只保留短的字母数字扩展名，避免把路径片段带进文件名
func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
