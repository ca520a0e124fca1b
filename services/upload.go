package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type FileUploadService struct {
	logger zerolog.Logger
	store  AssetStore
}

func NewFileUploadService(store AssetStore) *FileUploadService {
	return &FileUploadService{
		logger: log.With().Str("service", "upload").Logger(),
		store:  store,
	}
}

func (s *FileUploadService) Store() AssetStore {
	return s.store
}

// UploadFile saves the first non-empty file of the form under parent and
// returns where it was stored. It returns "" when the form has no file.
func (s *FileUploadService) UploadFile(ctx context.Context, form *multipart.Form, parent content.Location) (content.Location, error) {
	if form == nil {
		return "", nil
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		for _, header := range form.File[field] {
			if header.Filename == "" || header.Size == 0 {
				continue
			}
			return s.save(ctx, header, parent)
		}
	}
	return "", nil
}

func (s *FileUploadService) save(ctx context.Context, header *multipart.FileHeader, parent content.Location) (content.Location, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, 0); err != nil {
			return "", fmt.Errorf("rewind upload %s: %w", header.Filename, err)
		}
	}

	loc, err := s.store.Put(ctx, parent, header.Filename, contentType, file)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("path", loc.String()).Int64("size", header.Size).Msg("stored upload")
	return loc, nil
}
