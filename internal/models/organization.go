package models

type Organization struct {
	Base
	Name string `gorm:"size:200;not null" json:"name"`
	Slug string `gorm:"size:200;uniqueIndex;not null" json:"slug"`

	Memberships []Membership `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Projects    []Project    `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}
