package storage

import (
	"bytes"
	"io"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/ignatzorin/crowdship-backend/internal/pkg/apperror"
)

const sniffLen = 512

// Разрешённые типы фотографий посылок.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// sniffImage определяет реальный тип файла по магическим байтам и
// возвращает читатель, который отдаёт файл целиком.
func sniffImage(r io.Reader) (io.Reader, types.Type, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, types.Type{}, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать файл")
	}
	head = head[:n]
	if n == 0 {
		return nil, types.Type{}, apperror.New(apperror.ErrCodeValidation, "файл не может быть пустым")
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, types.Type{}, apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла, разрешены только изображения")
	}
	if !allowedMimeTypes[kind.MIME.Value] {
		return nil, types.Type{}, apperror.Newf(apperror.ErrCodeValidation, "неподдерживаемый тип файла: %s", kind.MIME.Value)
	}
	return io.MultiReader(bytes.NewReader(head), r), kind, nil
}

func tooLarge(limit int64) error {
	return apperror.Newf(apperror.ErrCodeValidation, "размер файла превышает лимит %d байт", limit)
}
