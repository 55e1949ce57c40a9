package models

// DocumentStatus is the lifecycle state of an uploaded document.
type DocumentStatus string

const (
	DocumentIngesting DocumentStatus = "ingesting"
	DocumentReady     DocumentStatus = "ready"
	DocumentFailed    DocumentStatus = "failed"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentIngesting, DocumentReady, DocumentFailed:
		return true
	}
	return false
}

// Document is an uploaded PDF together with its extracted text.
type Document struct {
	Base
	Owner      string         `json:"-"         gorm:"type:varchar(64);not null;uniqueIndex:idx_documents_owner_digest,priority:1;index:idx_documents_owner_status,priority:1"`
	FileName   string         `json:"fileName"  gorm:"type:varchar(255);not null"`
	FileSize   int64          `json:"fileSize"  gorm:"not null"`
	Digest     string         `json:"digest"    gorm:"type:char(32);not null;uniqueIndex:idx_documents_owner_digest,priority:2"`
	StorageKey string         `json:"-"         gorm:"type:varchar(191);not null"`
	PageCount  int            `json:"pageCount" gorm:"not null;default:0"`
	Text       string         `json:"text"      gorm:"type:longtext"`
	Status     DocumentStatus `json:"status"    gorm:"type:varchar(16);not null;index:idx_documents_owner_status,priority:2"`
}

func (Document) TableName() string { return "documents" }

// Ready reports whether the document finished ingestion.
func (d *Document) Ready() bool {
	return d != nil && d.Status == DocumentReady
}
