package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps reward images on local disk; used when no R2 bucket is configured.
// Files are served back by the static /uploads route.
type LocalStore struct {
	Root    string // e.g. "uploads"
	BaseURL string // e.g. "http://localhost:5200"
}

// EnsureDir creates the upload root if it doesn't exist
func (s *LocalStore) EnsureDir() error {
	return os.MkdirAll(s.Root, os.ModePerm)
}

// Save writes the uploaded file below Root and returns its public URL.
func (s *LocalStore) Save(_ context.Context, fileHeader *multipart.FileHeader, key string) (string, error) {
	destPath := filepath.Join(s.Root, filepath.FromSlash(key))
	if !strings.HasPrefix(destPath, filepath.Clean(s.Root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal upload key: %s", key)
	}
	if err := SaveFile(fileHeader, destPath); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/uploads/%s", strings.TrimRight(s.BaseURL, "/"), key), nil
}

// SaveFile saves the uploaded file to the given destination path
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}
