package models

import "gorm.io/datatypes"

type ExportType string

const (
	ExportDocx ExportType = "docx"
	ExportJSON ExportType = "json"
	ExportPDF  ExportType = "pdf"
)

type Export struct {
	Base
	ProjectID string         `gorm:"type:varchar(36);not null;index" json:"projectId"`
	Type      ExportType     `gorm:"size:50;not null" json:"type"`
	FilePath  string         `gorm:"size:500;not null" json:"filePath"`
	FileName  *string        `gorm:"size:100" json:"fileName"`
	FileSize  *int64         `json:"fileSize"`
	Status    string         `gorm:"size:50;not null;default:pending" json:"status"` // pending, processing, completed, failed
	Metadata  datatypes.JSON `json:"metadata"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}
