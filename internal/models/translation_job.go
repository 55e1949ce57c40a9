package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TranslationStatus is the state of a translation job. Done and Failed are terminal.
type TranslationStatus string

const (
	TranslationRunning TranslationStatus = "running"
	TranslationDone    TranslationStatus = "done"
	TranslationFailed  TranslationStatus = "failed"
)

func (s TranslationStatus) Valid() bool {
	switch s {
	case TranslationRunning, TranslationDone, TranslationFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s TranslationStatus) Terminal() bool {
	return s == TranslationDone || s == TranslationFailed
}

// TranslationStyle selects the tone of a translation.
type TranslationStyle string

const (
	StyleAccurate TranslationStyle = "accurate"
	StyleFluent   TranslationStyle = "fluent"
	StyleConcise  TranslationStyle = "concise"
)

const DefaultTranslationStyle = StyleFluent

func (s TranslationStyle) Valid() bool {
	switch s {
	case StyleAccurate, StyleFluent, StyleConcise:
		return true
	}
	return false
}

// ParseTranslationStyle maps "" to the default style and rejects unknown values.
func ParseTranslationStyle(raw string) (TranslationStyle, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return DefaultTranslationStyle, nil
	}
	s := TranslationStyle(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown translation style %q", raw)
	}
	return s, nil
}

// SourceLangAuto asks the model to detect the source language.
const SourceLangAuto = "auto"

// TranslationJob tracks the translation of one document into one target language.
type TranslationJob struct {
	Base
	DocumentID string            `json:"documentId"        gorm:"type:char(36);not null;index:idx_translation_jobs_doc_target,priority:1"`
	SourceLang string            `json:"sourceLang"        gorm:"type:varchar(16);not null"`
	TargetLang string            `json:"targetLang"        gorm:"type:varchar(32);not null;index:idx_translation_jobs_doc_target,priority:2"`
	Style      TranslationStyle  `json:"style"             gorm:"type:varchar(16);not null"`
	Status     TranslationStatus `json:"status"            gorm:"type:varchar(16);not null"`
	Payload    *string           `json:"translatedContent" gorm:"type:longtext"`
	// RunningKey is set only while Status is running.
	RunningKey *string `json:"-" gorm:"type:varchar(191);uniqueIndex:idx_translation_jobs_running_key"`
}

func (TranslationJob) TableName() string { return "translation_jobs" }

// Segment is one translated unit of the job payload.
type Segment struct {
	Index      int    `json:"index"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// RunningKeyFor builds the key that at most one running job may hold.
func RunningKeyFor(documentID, targetLang string, style TranslationStyle) string {
	return documentID + "|" + targetLang + "|" + string(style)
}

// Segments decodes the payload. A job without payload yields nil.
func (j *TranslationJob) Segments() ([]Segment, error) {
	if j == nil || j.Payload == nil {
		return nil, nil
	}
	var out []Segment
	if err := json.Unmarshal([]byte(*j.Payload), &out); err != nil {
		return nil, fmt.Errorf("decode translation payload: %w", err)
	}
	return out, nil
}
