package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 上传工件的内容类型
const (
	MimeHTML = "text/html"
	MimeJPEG = "image/jpeg"
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}
)
