package client

import (
	"bytes"
	"fmt"
	"io"
	"meritboard/backend/services"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MeritboardClient is a typed client for the backend api, used by the
// integration tests and by tooling that scripts against a running server.
type MeritboardClient struct {
	BaseClient
	userId string
}

func New(baseUrl string) *MeritboardClient {
	return &MeritboardClient{BaseClient: BaseClient{baseUrl: baseUrl}}
}

func (c *MeritboardClient) UserId() string {
	return c.userId
}

func (c *MeritboardClient) Signup(firstName, lastName, email, password string) error {
	body := map[string]string{
		"first_name": firstName, "last_name": lastName, "email": email, "password": password,
	}

	return c.Post("/api/v1/user/signup").Json(body).Do(nil)
}

func (c *MeritboardClient) Login(email, password string) error {
	var data map[string]string
	err := c.Get("/api/v1/user/login").Login(email, password).Do(&data)
	if err != nil {
		return err
	}

	c.authToken = data["access_token"]
	c.userId = data["user_id"]

	return nil
}

func (c *MeritboardClient) UserInfo() (services.UserDetail, error) {
	var info services.UserDetail
	err := c.Get("/api/v1/user/me").Do(&info)
	return info, err
}

func (c *MeritboardClient) ListUsers() ([]services.UserInfo, error) {
	var users []services.UserInfo
	err := c.Get("/api/v1/user/list").Do(&users)
	return users, err
}

func (c *MeritboardClient) UpdateUser(userId, firstName, lastName string) (services.UserInfo, error) {
	body := map[string]string{"first_name": firstName, "last_name": lastName}
	var info services.UserInfo
	err := c.Put(fmt.Sprintf("/api/v1/user/%v", userId)).Json(body).Do(&info)
	return info, err
}

func (c *MeritboardClient) DeleteUser(userId string) error {
	return c.Delete(fmt.Sprintf("/api/v1/user/%v", userId)).Do(nil)
}

func (c *MeritboardClient) ChangeSalary(userId string, salary int64) (services.UserDetail, error) {
	var info services.UserDetail
	err := c.Patch(fmt.Sprintf("/api/v1/user/%v/salary", userId)).Json(map[string]int64{"salary": salary}).Do(&info)
	return info, err
}

func (c *MeritboardClient) UploadAvatar(path string) (services.UserDetail, error) {
	file, err := os.Open(path)
	if err != nil {
		return services.UserDetail{}, fmt.Errorf("error opening avatar file: %w", err)
	}
	defer file.Close()

	body := new(bytes.Buffer)
	form := multipart.NewWriter(body)

	part, err := form.CreateFormFile("avatar", filepath.Base(path))
	if err != nil {
		return services.UserDetail{}, fmt.Errorf("error creating multipart payload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return services.UserDetail{}, fmt.Errorf("error copying avatar into payload: %w", err)
	}
	if err := form.Close(); err != nil {
		return services.UserDetail{}, fmt.Errorf("error finalizing multipart payload: %w", err)
	}

	var info services.UserDetail
	err = c.Patch("/api/v1/user/avatar").
		Header("Content-Type", form.FormDataContentType()).
		Body(body).
		Do(&info)
	return info, err
}

func (c *MeritboardClient) CreateEvent(name string) (services.EventInfo, error) {
	var info services.EventInfo
	err := c.Post("/api/v1/event/create").Json(map[string]string{"name": name}).Do(&info)
	return info, err
}

func (c *MeritboardClient) ListEvents() ([]services.EventInfo, error) {
	var events []services.EventInfo
	err := c.Get("/api/v1/event/list").Do(&events)
	return events, err
}

func (c *MeritboardClient) DeleteEvent(eventId uuid.UUID) error {
	return c.Delete(fmt.Sprintf("/api/v1/event/%v", eventId)).Do(nil)
}

func (c *MeritboardClient) CreateCriteria(name string) (services.CriteriaInfo, error) {
	var info services.CriteriaInfo
	err := c.Post("/api/v1/criteria/create").Json(map[string]string{"name": name}).Do(&info)
	return info, err
}

func (c *MeritboardClient) ListCriteria() ([]services.CriteriaInfo, error) {
	var criteria []services.CriteriaInfo
	err := c.Get("/api/v1/criteria/list").Do(&criteria)
	return criteria, err
}

func (c *MeritboardClient) DeleteCriteria(criteriaId uuid.UUID) error {
	return c.Delete(fmt.Sprintf("/api/v1/criteria/%v", criteriaId)).Do(nil)
}

func (c *MeritboardClient) CreateSubCriteria(name string, criteriaId uuid.UUID) (services.SubCriteriaInfo, error) {
	body := map[string]interface{}{"name": name, "criteria_id": criteriaId}
	var info services.SubCriteriaInfo
	err := c.Post("/api/v1/subcriteria/create").Json(body).Do(&info)
	return info, err
}

func (c *MeritboardClient) CreateRatingValue(name string, value int) (services.RatingInfo, error) {
	body := map[string]interface{}{"name": name, "value": value}
	var info services.RatingInfo
	err := c.Post("/api/v1/rating/create").Json(body).Do(&info)
	return info, err
}

func (c *MeritboardClient) ListRatingValues() ([]services.RatingInfo, error) {
	var values []services.RatingInfo
	err := c.Get("/api/v1/rating/values").Do(&values)
	return values, err
}

type SubmitRatingArgs struct {
	EventId       uuid.UUID `json:"event_id"`
	CriteriaId    uuid.UUID `json:"criteria_id"`
	SubCriteriaId uuid.UUID `json:"sub_criteria_id"`
	RatingId      uuid.UUID `json:"rating_id"`
}

func (c *MeritboardClient) SubmitRating(args SubmitRatingArgs) (services.RatingEntryInfo, error) {
	var entry services.RatingEntryInfo
	err := c.Post("/api/v1/rating/submit").Json(args).Do(&entry)
	return entry, err
}

func (c *MeritboardClient) ListRatings(eventId, userId string) ([]services.RatingEntryInfo, error) {
	req := c.Get("/api/v1/rating/list")
	if eventId != "" {
		req = req.Param("event_id", eventId)
	}
	if userId != "" {
		req = req.Param("user_id", userId)
	}

	var entries []services.RatingEntryInfo
	err := req.Do(&entries)
	return entries, err
}

func (c *MeritboardClient) DeleteRating(entryId uuid.UUID) error {
	return c.Delete(fmt.Sprintf("/api/v1/rating/%v", entryId)).Do(nil)
}

func (c *MeritboardClient) Health() error {
	return c.Get("/api/v1/health").Do(nil)
}
