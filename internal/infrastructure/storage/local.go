package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

// LocalStorage хранит фотографии на диске; раздаются они статикой по baseURL.
type LocalStorage struct {
	rootPath       string
	baseURL        string
	maxUploadBytes int64
}

func NewLocalStorage(rootPath, baseURL string, maxUploadMB int64) (*LocalStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &LocalStorage{
		rootPath:       rootPath,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save сохраняет файл под ключом prefix/<uuid>.<ext> и возвращает ключ.
func (s *LocalStorage) Save(ctx context.Context, prefix string, r io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if size > s.maxUploadBytes {
		return "", tooLarge(s.maxUploadBytes)
	}
	body, kind, err := sniffImage(r)
	if err != nil {
		return "", err
	}

	key := objectKey(prefix, kind.Extension)
	target := filepath.Join(s.rootPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог: %w", err)
	}

	tempPath := target + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, &io.LimitedReader{R: body, N: s.maxUploadBytes + 1})
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", tooLarge(s.maxUploadBytes)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}
	return key, nil
}

func (s *LocalStorage) URL(ctx context.Context, key string) (string, error) {
	if !validKey(key) {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный ключ файла")
	}
	return s.baseURL + "/" + key, nil
}

// objectKey ключ из очищенного префикса и случайного имени.
func objectKey(prefix, ext string) string {
	parts := strings.Split(prefix, "/")
	clean := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == "." || p == ".." || strings.Contains(p, "\\") {
			continue
		}
		clean = append(clean, p)
	}
	clean = append(clean, uuid.NewString()+"."+ext)
	return path.Join(clean...)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, p := range strings.Split(key, "/") {
		if p == ".." {
			return false
		}
	}
	return true
}
