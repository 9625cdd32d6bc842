package models

import "gorm.io/datatypes"

type DocumentStatus string

const (
	DocumentUploaded DocumentStatus = "uploaded"
	DocumentParsed   DocumentStatus = "parsed"
	DocumentFailed   DocumentStatus = "failed"
	DocumentExcluded DocumentStatus = "excluded"
)

type Author struct {
	Name string `json:"name"`
}

type Document struct {
	Base
	ProjectID string                      `gorm:"type:varchar(36);not null;index" json:"projectId"`
	Hash      string                      `gorm:"size:64;not null;uniqueIndex" json:"hash"` // MD5 of the PDF bytes
	DOI       *string                     `gorm:"size:512" json:"doi"`
	Title     *string                     `gorm:"size:1024" json:"title"`
	Authors   datatypes.JSONSlice[Author] `json:"authors"`
	Venue     *string                     `gorm:"size:256" json:"venue"`
	Year      *int                        `json:"year"`
	S3PdfKey  *string                     `gorm:"size:512" json:"s3PdfKey"`
	Status    DocumentStatus              `gorm:"size:32;not null;default:uploaded" json:"status"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}
