package entity

type Repo struct {
	Base

	OrganizationID string
	Organization   Organization `gorm:"foreignKey:OrganizationID"`

	ExternalID string `gorm:"uniqueIndex"`
	Name       string
}
