package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrCriteriaNotFound    = errors.New("criteria not found")
	ErrSubCriteriaNotFound = errors.New("sub-criteria not found")
	ErrRatingNotFound      = errors.New("rating not found")
	ErrRatingEntryNotFound = errors.New("rating entry not found")
	ErrDbAccessFailed      = errors.New("db access failed")
)

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetEvent(eventId uuid.UUID, db *gorm.DB) (Event, error) {
	var event Event

	result := db.First(&event, "id = ?", eventId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return event, ErrEventNotFound
		}
		slog.Error("sql error in get event", "event_id", eventId, "error", result.Error)
		return event, ErrDbAccessFailed
	}

	return event, nil
}

func GetCriteria(criteriaId uuid.UUID, db *gorm.DB) (Criteria, error) {
	var criteria Criteria

	result := db.First(&criteria, "id = ?", criteriaId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return criteria, ErrCriteriaNotFound
		}
		slog.Error("sql error in get criteria", "criteria_id", criteriaId, "error", result.Error)
		return criteria, ErrDbAccessFailed
	}

	return criteria, nil
}

func GetSubCriteria(subCriteriaId uuid.UUID, db *gorm.DB) (SubCriteria, error) {
	var subCriteria SubCriteria

	result := db.First(&subCriteria, "id = ?", subCriteriaId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return subCriteria, ErrSubCriteriaNotFound
		}
		slog.Error("sql error in get sub-criteria", "sub_criteria_id", subCriteriaId, "error", result.Error)
		return subCriteria, ErrDbAccessFailed
	}

	return subCriteria, nil
}

func GetRating(ratingId uuid.UUID, db *gorm.DB) (Rating, error) {
	var rating Rating

	result := db.First(&rating, "id = ?", ratingId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return rating, ErrRatingNotFound
		}
		slog.Error("sql error in get rating", "rating_id", ratingId, "error", result.Error)
		return rating, ErrDbAccessFailed
	}

	return rating, nil
}
