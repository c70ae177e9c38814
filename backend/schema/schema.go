package schema

import (
	"github.com/google/uuid"
)

const (
	DefaultSalary    = 60000
	DefaultAvatarUrl = "https://www.w3schools.com/howto/img_avatar.png"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	FirstName string `gorm:"size:100;not null"`
	LastName  string `gorm:"size:100;not null"`
	Email     string `gorm:"unique;size:254;not null"`

	// Password is only populated when the basic identity provider is used,
	// with keycloak the credential lives in the external realm.
	Password []byte

	IsAdmin bool  `gorm:"not null;default:false"`
	Salary  int64 `gorm:"not null;default:60000"`

	Avatar        string  `gorm:"size:500;not null"`
	AvatarAssetId *string `gorm:"size:200"`

	Ratings []UserSubCriteria `gorm:"constraint:OnDelete:CASCADE"`
}

type Event struct {
	Id   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"unique;size:100;not null"`

	Ratings []UserSubCriteria `gorm:"constraint:OnDelete:CASCADE"`
}

type Criteria struct {
	Id   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"unique;size:100;not null"`

	SubCriteria []SubCriteria     `gorm:"constraint:OnDelete:CASCADE"`
	Ratings     []UserSubCriteria `gorm:"constraint:OnDelete:CASCADE"`
}

type SubCriteria struct {
	Id   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"size:100;not null"`

	CriteriaId uuid.UUID `gorm:"type:uuid;not null;index"`
	Criteria   *Criteria

	Ratings []UserSubCriteria `gorm:"constraint:OnDelete:CASCADE"`
}

// Rating is a point on the rating scale, e.g. "good" = 4.
type Rating struct {
	Id    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name  string    `gorm:"unique;size:100;not null"`
	Value int       `gorm:"not null"`
}

// UserSubCriteria records that a user submitted a rating value for a
// sub-criterion of a criterion of an event. A user has at most one entry
// per (event, criteria, sub_criteria), resubmitting replaces the rating.
type UserSubCriteria struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventId       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_entry"`
	CriteriaId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_entry"`
	UserId        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_entry"`
	SubCriteriaId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_entry"`
	RatingId      uuid.UUID `gorm:"type:uuid;not null"`

	Event       *Event       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Criteria    *Criteria    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User        *User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	SubCriteria *SubCriteria `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Rating      *Rating      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func Entities() []interface{} {
	return []interface{}{
		&User{}, &Event{}, &Criteria{}, &SubCriteria{}, &Rating{}, &UserSubCriteria{},
	}
}
