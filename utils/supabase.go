package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"
)

const recordingBucket = "chapter_recordings"

func storageClient() *storage.Client {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	return storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)
}

// UploadRecording đẩy file ghi âm/ghi hình lên bucket, trả về (objectKey, publicURL).
func UploadRecording(file interface{}, filename string, fileID string, folder string, contentType string) (string, string, error) {
	client := storageClient()

	var reader io.Reader
	var ext string

	// File upload qua form-data
	if fh, ok := file.(*multipart.FileHeader); ok {
		f, err := fh.Open()
		if err != nil {
			return "", "", err
		}
		defer f.Close()
		reader = f
		ext = filepath.Ext(fh.Filename)
		if contentType == "" {
			contentType = fh.Header.Get("Content-Type")
		}
		if _, err := f.Seek(0, 0); err != nil {
			return "", "", err
		}
	}

	// []byte (file sinh ra từ server)
	if data, ok := file.([]byte); ok {
		reader = bytes.NewReader(data)
		ext = filepath.Ext(filename)
	}

	objectKey := fmt.Sprintf("%s%s", fileID, ext)
	if folder != "" {
		objectKey = fmt.Sprintf("%s/%s%s", folder, fileID, ext)
	}

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := client.UploadFile(recordingBucket, objectKey, reader, options); err != nil {
		return "", "", err
	}

	publicURL := client.GetPublicUrl(recordingBucket, objectKey)
	return objectKey, publicURL.SignedURL, nil
}

// RemoveRecordings xóa blob theo objectKey; dùng trong cascade xóa meeting.
// Lỗi ở đây phải làm cascade abort, không được xóa meeting khi blob còn sót.
func RemoveRecordings(objectKeys []string) error {
	if len(objectKeys) == 0 {
		return nil
	}
	client := storageClient()
	if _, err := client.RemoveFile(recordingBucket, objectKeys); err != nil {
		return err
	}
	return nil
}
