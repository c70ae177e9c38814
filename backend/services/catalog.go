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
	"gorm.io/gorm"
)

// CatalogService owns the reference tables ratings are submitted against:
// events, criteria, and sub-criteria. Any authenticated user can read them,
// only admins can change them.
type CatalogService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *CatalogService) EventRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/list", s.ListEvents)
	r.Get("/{event_id}", s.GetEvent)

	r.Group(func(r chi.Router) {
		r.Use(auth.AdminOnly(s.db))
		r.Post("/create", s.CreateEvent)
		r.Delete("/{event_id}", s.DeleteEvent)
	})

	return r
}

func (s *CatalogService) CriteriaRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/list", s.ListCriteria)
	r.Get("/{criteria_id}", s.GetCriteria)

	r.Group(func(r chi.Router) {
		r.Use(auth.AdminOnly(s.db))
		r.Post("/create", s.CreateCriteria)
		r.Delete("/{criteria_id}", s.DeleteCriteria)
	})

	return r
}

func (s *CatalogService) SubCriteriaRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/list", s.ListSubCriteria)
	r.Get("/{sub_criteria_id}", s.GetSubCriteria)

	r.Group(func(r chi.Router) {
		r.Use(auth.AdminOnly(s.db))
		r.Post("/create", s.CreateSubCriteria)
		r.Delete("/{sub_criteria_id}", s.DeleteSubCriteria)
	})

	return r
}

type EventInfo struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SubCriteriaInfo struct {
	Id         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CriteriaId uuid.UUID `json:"criteria_id"`
}

type CriteriaInfo struct {
	Id          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	SubCriteria []SubCriteriaInfo `json:"sub_criteria"`
}

func convertToEventInfo(event *schema.Event) EventInfo {
	return EventInfo{Id: event.Id, Name: event.Name}
}

func convertToSubCriteriaInfo(sub *schema.SubCriteria) SubCriteriaInfo {
	return SubCriteriaInfo{Id: sub.Id, Name: sub.Name, CriteriaId: sub.CriteriaId}
}

func convertToCriteriaInfo(criteria *schema.Criteria) CriteriaInfo {
	subs := make([]SubCriteriaInfo, 0, len(criteria.SubCriteria))
	for _, sub := range criteria.SubCriteria {
		subs = append(subs, convertToSubCriteriaInfo(&sub))
	}
	return CriteriaInfo{Id: criteria.Id, Name: criteria.Name, SubCriteria: subs}
}

type createNamedRequest struct {
	Name string `json:"name"`
}

func (s *CatalogService) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var params createNamedRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "event name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	event := schema.Event{Id: uuid.New(), Name: params.Name}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.Event
		result := txn.Limit(1).Find(&existing, "name = ?", params.Name)
		if result.Error != nil {
			slog.Error("sql error checking for existing event", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			return CodedError(fmt.Errorf("event %q already exists", params.Name), http.StatusConflict)
		}

		if result := txn.Create(&event); result.Error != nil {
			slog.Error("sql error creating event", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating event: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToEventInfo(&event))
}

func (s *CatalogService) ListEvents(w http.ResponseWriter, r *http.Request) {
	var events []schema.Event
	if result := s.db.Order("name").Find(&events); result.Error != nil {
		slog.Error("sql error listing events", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing events: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]EventInfo, 0, len(events))
	for _, e := range events {
		infos = append(infos, convertToEventInfo(&e))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *CatalogService) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventId, err := utils.URLParamUUID(r, "event_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event, err := schema.GetEvent(eventId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrEventNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting event %v: %v", eventId, err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToEventInfo(&event))
}

func (s *CatalogService) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventId, err := utils.URLParamUUID(r, "event_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetEvent(eventId, txn); err != nil {
			if errors.Is(err, schema.ErrEventNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if result := txn.Delete(&schema.UserSubCriteria{}, "event_id = ?", eventId); result.Error != nil {
			slog.Error("sql error deleting event rating entries", "event_id", eventId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result := txn.Delete(&schema.Event{Id: eventId}); result.Error != nil {
			slog.Error("sql error deleting event", "event_id", eventId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting event %v: %v", eventId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *CatalogService) CreateCriteria(w http.ResponseWriter, r *http.Request) {
	var params createNamedRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "criteria name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	criteria := schema.Criteria{Id: uuid.New(), Name: params.Name}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.Criteria
		result := txn.Limit(1).Find(&existing, "name = ?", params.Name)
		if result.Error != nil {
			slog.Error("sql error checking for existing criteria", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			return CodedError(fmt.Errorf("criteria %q already exists", params.Name), http.StatusConflict)
		}

		if result := txn.Create(&criteria); result.Error != nil {
			slog.Error("sql error creating criteria", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating criteria: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToCriteriaInfo(&criteria))
}

func (s *CatalogService) ListCriteria(w http.ResponseWriter, r *http.Request) {
	var criteria []schema.Criteria
	if result := s.db.Preload("SubCriteria").Order("name").Find(&criteria); result.Error != nil {
		slog.Error("sql error listing criteria", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing criteria: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]CriteriaInfo, 0, len(criteria))
	for _, c := range criteria {
		infos = append(infos, convertToCriteriaInfo(&c))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *CatalogService) GetCriteria(w http.ResponseWriter, r *http.Request) {
	criteriaId, err := utils.URLParamUUID(r, "criteria_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var criteria schema.Criteria
	result := s.db.Preload("SubCriteria").Limit(1).Find(&criteria, "id = ?", criteriaId)
	if result.Error != nil {
		slog.Error("sql error getting criteria", "criteria_id", criteriaId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error getting criteria %v: %v", criteriaId, schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, schema.ErrCriteriaNotFound.Error(), http.StatusNotFound)
		return
	}

	utils.WriteJsonResponse(w, convertToCriteriaInfo(&criteria))
}

func (s *CatalogService) DeleteCriteria(w http.ResponseWriter, r *http.Request) {
	criteriaId, err := utils.URLParamUUID(r, "criteria_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetCriteria(criteriaId, txn); err != nil {
			if errors.Is(err, schema.ErrCriteriaNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if result := txn.Delete(&schema.UserSubCriteria{}, "criteria_id = ?", criteriaId); result.Error != nil {
			slog.Error("sql error deleting criteria rating entries", "criteria_id", criteriaId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result := txn.Delete(&schema.SubCriteria{}, "criteria_id = ?", criteriaId); result.Error != nil {
			slog.Error("sql error deleting criteria sub-criteria", "criteria_id", criteriaId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result := txn.Delete(&schema.Criteria{Id: criteriaId}); result.Error != nil {
			slog.Error("sql error deleting criteria", "criteria_id", criteriaId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting criteria %v: %v", criteriaId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type createSubCriteriaRequest struct {
	Name       string    `json:"name"`
	CriteriaId uuid.UUID `json:"criteria_id"`
}

func (s *CatalogService) CreateSubCriteria(w http.ResponseWriter, r *http.Request) {
	var params createSubCriteriaRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "sub-criteria name cannot be empty", http.StatusUnprocessableEntity)
		return
	}

	sub := schema.SubCriteria{Id: uuid.New(), Name: params.Name, CriteriaId: params.CriteriaId}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetCriteria(params.CriteriaId, txn); err != nil {
			if errors.Is(err, schema.ErrCriteriaNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if result := txn.Create(&sub); result.Error != nil {
			slog.Error("sql error creating sub-criteria", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating sub-criteria: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToSubCriteriaInfo(&sub))
}

func (s *CatalogService) ListSubCriteria(w http.ResponseWriter, r *http.Request) {
	query := s.db.Order("name")
	if criteriaId := r.URL.Query().Get("criteria_id"); criteriaId != "" {
		id, err := uuid.Parse(criteriaId)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid criteria_id filter: %v", err), http.StatusBadRequest)
			return
		}
		query = query.Where("criteria_id = ?", id)
	}

	var subs []schema.SubCriteria
	if result := query.Find(&subs); result.Error != nil {
		slog.Error("sql error listing sub-criteria", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing sub-criteria: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]SubCriteriaInfo, 0, len(subs))
	for _, sub := range subs {
		infos = append(infos, convertToSubCriteriaInfo(&sub))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *CatalogService) GetSubCriteria(w http.ResponseWriter, r *http.Request) {
	subCriteriaId, err := utils.URLParamUUID(r, "sub_criteria_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := schema.GetSubCriteria(subCriteriaId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrSubCriteriaNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting sub-criteria %v: %v", subCriteriaId, err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToSubCriteriaInfo(&sub))
}

func (s *CatalogService) DeleteSubCriteria(w http.ResponseWriter, r *http.Request) {
	subCriteriaId, err := utils.URLParamUUID(r, "sub_criteria_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := schema.GetSubCriteria(subCriteriaId, txn); err != nil {
			if errors.Is(err, schema.ErrSubCriteriaNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if result := txn.Delete(&schema.UserSubCriteria{}, "sub_criteria_id = ?", subCriteriaId); result.Error != nil {
			slog.Error("sql error deleting sub-criteria rating entries", "sub_criteria_id", subCriteriaId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result := txn.Delete(&schema.SubCriteria{Id: subCriteriaId}); result.Error != nil {
			slog.Error("sql error deleting sub-criteria", "sub_criteria_id", subCriteriaId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting sub-criteria %v: %v", subCriteriaId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
