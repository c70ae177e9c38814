package services

import (
	"errors"
	"fmt"
	"log/slog"
	"meritboard/backend/auth"
	"meritboard/backend/schema"
	"meritboard/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// RatingService covers both halves of rating: the scale of named values
// admins define (e.g. "good" = 4), and the entries users submit against
// sub-criteria using those values.
type RatingService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *RatingService) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/values", s.ListValues)

	r.Post("/submit", s.Submit)
	r.Get("/list", s.ListEntries)
	r.Get("/{entry_id}", s.GetEntry)
	r.Delete("/{entry_id}", s.DeleteEntry)

	r.Group(func(r chi.Router) {
		r.Use(auth.AdminOnly(s.db))
		r.Post("/create", s.CreateValue)
		r.Delete("/values/{rating_id}", s.DeleteValue)
	})

	return r
}

type RatingInfo struct {
	Id    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Value int       `json:"value"`
}

func convertToRatingInfo(rating *schema.Rating) RatingInfo {
	return RatingInfo{Id: rating.Id, Name: rating.Name, Value: rating.Value}
}

type CriteriaSummary struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RatingEntryInfo is the projection returned for a submitted rating, with
// the referenced rows inlined so clients never chase ids.
type RatingEntryInfo struct {
	Id          uuid.UUID       `json:"id"`
	Event       EventInfo       `json:"event"`
	Criteria    CriteriaSummary `json:"criteria"`
	SubCriteria SubCriteriaInfo `json:"sub_criteria"`
	Rating      RatingInfo      `json:"rating"`
	User        UserInfo        `json:"user"`
}

func convertToRatingEntryInfo(entry *schema.UserSubCriteria) RatingEntryInfo {
	info := RatingEntryInfo{Id: entry.Id}
	if entry.Event != nil {
		info.Event = convertToEventInfo(entry.Event)
	}
	if entry.Criteria != nil {
		info.Criteria = CriteriaSummary{Id: entry.Criteria.Id, Name: entry.Criteria.Name}
	}
	if entry.SubCriteria != nil {
		info.SubCriteria = convertToSubCriteriaInfo(entry.SubCriteria)
	}
	if entry.Rating != nil {
		info.Rating = convertToRatingInfo(entry.Rating)
	}
	if entry.User != nil {
		info.User = convertToUserInfo(entry.User)
	}
	return info
}

type createRatingValueRequest struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (s *RatingService) CreateValue(w http.ResponseWriter, r *http.Request) {
	var params createRatingValueRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "rating name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	rating := schema.Rating{Id: uuid.New(), Name: params.Name, Value: params.Value}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.Rating
		result := txn.Limit(1).Find(&existing, "name = ?", params.Name)
		if result.Error != nil {
			slog.Error("sql error checking for existing rating", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			return CodedError(fmt.Errorf("rating %q already exists", params.Name), http.StatusConflict)
		}

		if result := txn.Create(&rating); result.Error != nil {
			slog.Error("sql error creating rating", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating rating: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToRatingInfo(&rating))
}

func (s *RatingService) ListValues(w http.ResponseWriter, r *http.Request) {
	var ratings []schema.Rating
	if result := s.db.Order("value").Find(&ratings); result.Error != nil {
		slog.Error("sql error listing ratings", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing ratings: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]RatingInfo, 0, len(ratings))
	for _, rating := range ratings {
		infos = append(infos, convertToRatingInfo(&rating))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *RatingService) DeleteValue(w http.ResponseWriter, r *http.Request) {
	ratingId, err := utils.URLParamUUID(r, "rating_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetRating(ratingId, txn); err != nil {
			if errors.Is(err, schema.ErrRatingNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if result := txn.Delete(&schema.UserSubCriteria{}, "rating_id = ?", ratingId); result.Error != nil {
			slog.Error("sql error deleting rating entries for value", "rating_id", ratingId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result := txn.Delete(&schema.Rating{Id: ratingId}); result.Error != nil {
			slog.Error("sql error deleting rating value", "rating_id", ratingId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting rating %v: %v", ratingId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type submitRatingRequest struct {
	EventId       uuid.UUID `json:"event_id"`
	CriteriaId    uuid.UUID `json:"criteria_id"`
	SubCriteriaId uuid.UUID `json:"sub_criteria_id"`
	RatingId      uuid.UUID `json:"rating_id"`
}

func (s *RatingService) Submit(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(ratingSubmitMetric)
	defer timer.ObserveDuration()

	caller, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params submitRatingRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var entryId uuid.UUID

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetEvent(params.EventId, txn); err != nil {
			if errors.Is(err, schema.ErrEventNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}
		if _, err := schema.GetCriteria(params.CriteriaId, txn); err != nil {
			if errors.Is(err, schema.ErrCriteriaNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}
		sub, err := schema.GetSubCriteria(params.SubCriteriaId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrSubCriteriaNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}
		if sub.CriteriaId != params.CriteriaId {
			return CodedError(
				fmt.Errorf("sub-criteria %v does not belong to criteria %v", params.SubCriteriaId, params.CriteriaId),
				http.StatusBadRequest,
			)
		}
		if _, err := schema.GetRating(params.RatingId, txn); err != nil {
			if errors.Is(err, schema.ErrRatingNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}
		if _, err := schema.GetUser(caller.Id, txn); err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		// One entry per (event, criteria, user, sub-criteria), resubmitting
		// replaces the rating value.
		var existing schema.UserSubCriteria
		result := txn.Limit(1).Find(
			&existing,
			"event_id = ? AND criteria_id = ? AND user_id = ? AND sub_criteria_id = ?",
			params.EventId, params.CriteriaId, caller.Id, params.SubCriteriaId,
		)
		if result.Error != nil {
			slog.Error("sql error checking for existing rating entry", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if result.RowsAffected != 0 {
			existing.RatingId = params.RatingId
			if result := txn.Save(&existing); result.Error != nil {
				slog.Error("sql error updating rating entry", "entry_id", existing.Id, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
			entryId = existing.Id
			return nil
		}

		entry := schema.UserSubCriteria{
			Id:            uuid.New(),
			EventId:       params.EventId,
			CriteriaId:    params.CriteriaId,
			UserId:        caller.Id,
			SubCriteriaId: params.SubCriteriaId,
			RatingId:      params.RatingId,
		}
		if result := txn.Create(&entry); result.Error != nil {
			slog.Error("sql error creating rating entry", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		entryId = entry.Id
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error submitting rating: %v", err), GetResponseCode(err))
		return
	}

	entry, err := s.getEntryById(entryId)
	if err != nil {
		http.Error(w, fmt.Sprintf("error loading submitted rating: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToRatingEntryInfo(&entry))
}

func (s *RatingService) entryQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Event").
		Preload("Criteria").
		Preload("SubCriteria").
		Preload("Rating").
		Preload("User")
}

func (s *RatingService) getEntryById(entryId uuid.UUID) (schema.UserSubCriteria, error) {
	var entry schema.UserSubCriteria
	result := s.entryQuery(s.db).Limit(1).Find(&entry, "id = ?", entryId)
	if result.Error != nil {
		slog.Error("sql error getting rating entry", "entry_id", entryId, "error", result.Error)
		return entry, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	if result.RowsAffected == 0 {
		return entry, CodedError(schema.ErrRatingEntryNotFound, http.StatusNotFound)
	}
	return entry, nil
}

func (s *RatingService) ListEntries(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(ratingListMetric)
	defer timer.ObserveDuration()

	query := s.entryQuery(s.db).Order("id")

	if eventId := r.URL.Query().Get("event_id"); eventId != "" {
		id, err := uuid.Parse(eventId)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid event_id filter: %v", err), http.StatusBadRequest)
			return
		}
		query = query.Where("event_id = ?", id)
	}
	if userId := r.URL.Query().Get("user_id"); userId != "" {
		id, err := uuid.Parse(userId)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid user_id filter: %v", err), http.StatusBadRequest)
			return
		}
		query = query.Where("user_id = ?", id)
	}

	var entries []schema.UserSubCriteria
	if result := query.Find(&entries); result.Error != nil {
		slog.Error("sql error listing rating entries", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing ratings: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]RatingEntryInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, convertToRatingEntryInfo(&entry))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *RatingService) GetEntry(w http.ResponseWriter, r *http.Request) {
	entryId, err := utils.URLParamUUID(r, "entry_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := s.getEntryById(entryId)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting rating entry %v: %v", entryId, err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToRatingEntryInfo(&entry))
}

func (s *RatingService) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	entryId, err := utils.URLParamUUID(r, "entry_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		var entry schema.UserSubCriteria
		result := txn.Limit(1).Find(&entry, "id = ?", entryId)
		if result.Error != nil {
			slog.Error("sql error finding rating entry to delete", "entry_id", entryId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			return CodedError(schema.ErrRatingEntryNotFound, http.StatusNotFound)
		}

		if entry.UserId != caller.Id && !caller.IsAdmin {
			return CodedError(fmt.Errorf("user %v cannot delete another user's rating", caller.Id), http.StatusForbidden)
		}

		if result := txn.Delete(&schema.UserSubCriteria{Id: entryId}); result.Error != nil {
			slog.Error("sql error deleting rating entry", "entry_id", entryId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting rating entry %v: %v", entryId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
