package orders

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BearBump/CarTrace/internal/broker/messages"
	"github.com/BearBump/CarTrace/internal/files"
	"github.com/BearBump/CarTrace/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const maxAttachmentSize = 20 << 20 // 20 MB

var allowedMime = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

var extToMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

var originalNameRe = regexp.MustCompile(`[^A-Za-z0-9.\-_\s()]`)

// Upload — один файл из multipart-формы.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// SaveAttachments валидирует пачку целиком и только потом пишет байты
// и метаданные: один плохой файл отклоняет всю загрузку, частичных
// результатов не остаётся.
func (s *Service) SaveAttachments(ctx context.Context, orderID string, stageID *string, uploads []Upload) ([]*models.Attachment, error) {
	if len(uploads) == 0 {
		return nil, models.ErrNoFiles
	}

	o, err := s.repo.GetOrderHeadByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var atts []*models.Attachment
	var blobs [][]byte
	for _, up := range uploads {
		if len(up.Data) == 0 {
			continue
		}
		if len(up.Data) > maxAttachmentSize {
			return nil, errors.Wrap(models.ErrUploadRejected, "file too large (max 20MB)")
		}

		ext := strings.ToLower(filepath.Ext(up.Name))
		mime := up.ContentType
		if mime == "" {
			mime = extToMime[ext]
		}
		if !allowedMime[mime] {
			return nil, errors.Wrapf(models.ErrUploadRejected, "mime %q is not allowed", mime)
		}

		filename, err := files.RandomFilename(ext)
		if err != nil {
			return nil, err
		}

		atts = append(atts, &models.Attachment{
			ID:           uuid.NewString(),
			OrderID:      orderID,
			StageID:      stageID,
			Filename:     filename,
			OriginalName: sanitizeOriginalName(up.Name),
			Mime:         mime,
			Size:         int64(len(up.Data)),
			Type:         attachmentTypeFor(mime),
			CreatedAt:    now,
		})
		blobs = append(blobs, up.Data)
	}
	if len(atts) == 0 {
		return nil, models.ErrNoFiles
	}

	for i, a := range atts {
		if err := s.fileSt.Save(a.Filename, blobs[i]); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateAttachments(ctx, orderID, atts); err != nil {
		return nil, err
	}

	s.invalidate(ctx, orderID, o.TrackingNumber, messages.ReasonFilesUploaded)
	return atts, nil
}

// ListClientAttachments — метаданные файлов заказа, под кодом доступа.
func (s *Service) ListClientAttachments(ctx context.Context, trackingNumber, accessCode, ip string) ([]*models.Attachment, error) {
	o, err := s.resolveHead(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Require(ctx, o.TrackingNumber, accessCode, o.AccessCode, ip); err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(ctx, o.ID)
}

// FetchAttachment отдаёт метаданные и байты файла. Клиент обязан
// предъявить трек-номер владеющего заказа и пройти гейт; админ — нет.
func (s *Service) FetchAttachment(ctx context.Context, attachmentID, trackingNumber, accessCode, ip string, isAdmin bool) (*models.Attachment, []byte, error) {
	a, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	if !isAdmin {
		o, err := s.resolveHead(ctx, trackingNumber)
		if err != nil {
			return nil, nil, err
		}
		if o.ID != a.OrderID {
			return nil, nil, errors.Wrap(models.ErrUnauthorized, "attachment belongs to another order")
		}
		if err := s.gate.Require(ctx, o.TrackingNumber, accessCode, o.AccessCode, ip); err != nil {
			return nil, nil, err
		}
	}

	b, err := s.fileSt.Read(a.Filename)
	if err != nil {
		return nil, nil, errors.Wrap(models.ErrNotFound, "file missing")
	}
	return a, b, nil
}

func sanitizeOriginalName(name string) string {
	base := filepath.Base(name)
	cleaned := strings.TrimSpace(originalNameRe.ReplaceAllString(base, ""))
	if cleaned == "" {
		return "file"
	}
	if len([]rune(cleaned)) > 120 {
		return string([]rune(cleaned)[:120])
	}
	return cleaned
}

func attachmentTypeFor(mime string) models.AttachmentType {
	switch {
	case strings.Contains(mime, "pdf"):
		return models.AttachmentTypePDF
	case strings.Contains(mime, "image"):
		return models.AttachmentTypeImage
	}
	return models.AttachmentTypeOther
}
