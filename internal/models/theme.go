package models

import "gorm.io/datatypes"

type Theme struct {
	Base
	ProjectID  string         `gorm:"type:varchar(36);not null;index" json:"projectId"`
	Label      string         `gorm:"size:256;not null" json:"label"`
	ParentID   *string        `gorm:"type:varchar(36);index" json:"parentId"`
	Provenance datatypes.JSON `json:"provenance"`
	Summary    datatypes.JSON `json:"summary"`

	Project  *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Parent   *Theme   `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
	Children []Theme  `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// ThemeAssignment weights a document's membership in a theme. Rows are
// written by the clustering workers.
type ThemeAssignment struct {
	Base
	ThemeID    string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_theme_document" json:"themeId"`
	DocumentID string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_theme_document" json:"documentId"`
	Weight     float32 `gorm:"not null" json:"weight"`

	Theme    *Theme    `gorm:"foreignKey:ThemeID;constraint:OnDelete:CASCADE" json:"-"`
	Document *Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}
