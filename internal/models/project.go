package models

type Project struct {
	Base
	Name           string `gorm:"size:200;not null" json:"name"`
	OrganizationID string `gorm:"type:varchar(36);not null;index" json:"organizationId"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}
