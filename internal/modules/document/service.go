// Package document ingests uploaded PDFs and serves them back to their owner.
package document

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/docagent/server/internal/pkg/blob"
	"github.com/docagent/server/internal/pkg/pagination"
	"github.com/docagent/server/internal/pkg/pdftext"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/docagent/server/internal/repository"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

type Service struct {
	docs      repository.DocumentRepository
	blobs     blob.Store
	extractor pdftext.Extractor
	maxBytes  int64
	logger    *zap.Logger
}

// ServiceOption configures a document Service.
type ServiceOption func(*Service)

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("DocumentService")
		}
	}
}

func NewService(docs repository.DocumentRepository, blobs blob.Store, extractor pdftext.Extractor, maxBytes int64, opts ...ServiceOption) *Service {
	s := &Service{docs: docs, blobs: blobs, extractor: extractor, maxBytes: maxBytes, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Ingest stores data for owner and returns its Ready document. Identical bytes
// from the same owner return the existing document without any new writes.
// deduped reports whether an existing document was returned.
func (s *Service) Ingest(ctx context.Context, data []byte, filename, owner string) (doc *models.Document, deduped bool, err error) {
	filename = strings.TrimSpace(filename)
	if err := s.validate(data, filename, owner); err != nil {
		return nil, false, err
	}

	digest := Digest(data)
	existing, err := s.docs.FindReadyByDigest(ctx, owner, digest)
	switch {
	case err == nil:
		return existing, true, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, apperr.Internal(fmt.Errorf("find by digest: %w", err))
	}

	key := storageKey(filename)
	if err := s.blobs.Put(ctx, key, data, pdfContentType); err != nil {
		return nil, false, apperr.Internal(fmt.Errorf("store blob: %w", err))
	}

	res, err := s.extractor.Extract(ctx, data)
	if err != nil {
		s.discard(key)
		s.logger.Warn("text extraction failed", zap.String("file", filename), zap.Error(err))
		return nil, false, apperr.Extraction(err)
	}

	doc = &models.Document{
		Owner:      owner,
		FileName:   filename,
		FileSize:   int64(len(data)),
		Digest:     digest,
		StorageKey: key,
		PageCount:  res.PageCount,
		Text:       res.Text,
		Status:     models.DocumentReady,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.discard(key)
		if errors.Is(err, repository.ErrDuplicate) {
			winner, findErr := s.docs.FindReadyByDigest(ctx, owner, digest)
			if findErr != nil {
				return nil, false, apperr.Internal(fmt.Errorf("load concurrent upload: %w", findErr))
			}
			return winner, true, nil
		}
		return nil, false, apperr.Internal(fmt.Errorf("create document: %w", err))
	}

	s.logger.Info("document ingested",
		zap.String("id", doc.ID),
		zap.String("file", filename),
		zap.Int("pages", doc.PageCount),
		zap.Int64("size", doc.FileSize))
	return doc, false, nil
}

func (s *Service) validate(data []byte, filename, owner string) error {
	switch {
	case len(data) == 0:
		return apperr.Validation("file is empty")
	case filename == "":
		return apperr.Validation("file name is required")
	case !strings.EqualFold(filepath.Ext(filename), ".pdf"):
		return apperr.Validation("only PDF files are supported")
	case s.maxBytes > 0 && int64(len(data)) > s.maxBytes:
		return errTooLarge(s.maxBytes)
	case strings.TrimSpace(owner) == "":
		return apperr.Validation("session is required")
	}
	return nil
}

// discard removes a blob left behind by a failed ingest.
func (s *Service) discard(key string) {
	if err := s.blobs.Delete(context.Background(), key); err != nil {
		s.logger.Warn("discard blob failed", zap.String("key", key), zap.Error(err))
	}
}

// Get resolves a document by id, scoped to owner.
func (s *Service) Get(ctx context.Context, id, owner string) (*models.Document, error) {
	doc, err := s.docs.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("document not found")
		}
		return nil, apperr.Internal(fmt.Errorf("find document: %w", err))
	}
	if !doc.Ready() {
		return nil, apperr.NotFound("document not found")
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, owner string, q pagination.Query) ([]models.Document, response.Pagination, error) {
	items, pag, err := s.docs.ListReady(ctx, owner, q)
	if err != nil {
		return nil, response.Pagination{}, apperr.Internal(fmt.Errorf("list documents: %w", err))
	}
	return items, pag, nil
}

// Open returns the stored PDF. The caller closes the reader.
func (s *Service) Open(ctx context.Context, id, owner string) (io.ReadCloser, *models.Document, error) {
	doc, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, apperr.NotFound("document file not found")
		}
		return nil, nil, apperr.Internal(fmt.Errorf("open blob: %w", err))
	}
	return rc, doc, nil
}

// Digest is the lowercase hex MD5 of data.
func Digest(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func storageKey(filename string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ToLower(filepath.Ext(filename))
}

// errTooLarge reports the upload limit in binary units, e.g. "512 KiB".
func errTooLarge(maxBytes int64) error {
	return apperr.Validationf("file exceeds the %s limit", humanize.IBytes(uint64(maxBytes)))
}
