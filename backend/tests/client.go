package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"meritboard/backend/services"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
		headers:  nil,
		json:     nil,
		body:     nil,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

func (r *httpTestRequest) Body(body io.Reader) *httpTestRequest {
	r.body = body
	return r
}

var ErrUnauthorized = errors.New("unauthorized")

type httpError struct {
	code int
	body string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("request returned status %d, content '%v'", e.code, e.body)
}

// statusCode returns the http status carried by an error from Do, or 0 if
// the error is not an http error.
func statusCode(err error) int {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.code
	}
	return 0
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		if res.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return &httpError{code: res.StatusCode, body: w.Body.String()}
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Put(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "PUT", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Patch(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "PATCH", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "DELETE", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(firstName, lastName, email, password string) (loginInfo, error) {
	body := map[string]string{
		"first_name": firstName, "last_name": lastName, "email": email, "password": password,
	}

	err := c.Post("/user/signup").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: email, Password: password}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/user/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) userInfo() (services.UserDetail, error) {
	var info services.UserDetail
	err := c.Get("/user/me").Do(&info)
	return info, err
}

func (c *client) getUser(userId string) (services.UserInfo, error) {
	var info services.UserInfo
	err := c.Get(fmt.Sprintf("/user/%v", userId)).Do(&info)
	return info, err
}

func (c *client) listUsers() ([]services.UserInfo, error) {
	var users []services.UserInfo
	err := c.Get("/user/list").Do(&users)
	return users, err
}

func (c *client) updateUser(userId, firstName, lastName string) (services.UserInfo, error) {
	body := map[string]string{"first_name": firstName, "last_name": lastName}
	var info services.UserInfo
	err := c.Put(fmt.Sprintf("/user/%v", userId)).Json(body).Do(&info)
	return info, err
}

func (c *client) deleteUser(userId string) error {
	return c.Delete(fmt.Sprintf("/user/%v", userId)).Do(nil)
}

func (c *client) changeSalary(userId string, salary int64) (services.UserDetail, error) {
	var info services.UserDetail
	err := c.Patch(fmt.Sprintf("/user/%v/salary", userId)).Json(map[string]int64{"salary": salary}).Do(&info)
	return info, err
}

func (c *client) uploadAvatar(filename string, data []byte) (services.UserDetail, error) {
	body := new(bytes.Buffer)
	form := multipart.NewWriter(body)

	part, err := form.CreateFormFile("avatar", filename)
	if err != nil {
		return services.UserDetail{}, err
	}
	if _, err := part.Write(data); err != nil {
		return services.UserDetail{}, err
	}
	if err := form.Close(); err != nil {
		return services.UserDetail{}, err
	}

	var info services.UserDetail
	err = c.Patch("/user/avatar").
		Header("Content-Type", form.FormDataContentType()).
		Body(body).
		Do(&info)
	return info, err
}

func (c *client) createEvent(name string) (services.EventInfo, error) {
	var info services.EventInfo
	err := c.Post("/event/create").Json(map[string]string{"name": name}).Do(&info)
	return info, err
}

func (c *client) listEvents() ([]services.EventInfo, error) {
	var events []services.EventInfo
	err := c.Get("/event/list").Do(&events)
	return events, err
}

func (c *client) deleteEvent(eventId uuid.UUID) error {
	return c.Delete(fmt.Sprintf("/event/%v", eventId)).Do(nil)
}

func (c *client) createCriteria(name string) (services.CriteriaInfo, error) {
	var info services.CriteriaInfo
	err := c.Post("/criteria/create").Json(map[string]string{"name": name}).Do(&info)
	return info, err
}

func (c *client) listCriteria() ([]services.CriteriaInfo, error) {
	var criteria []services.CriteriaInfo
	err := c.Get("/criteria/list").Do(&criteria)
	return criteria, err
}

func (c *client) deleteCriteria(criteriaId uuid.UUID) error {
	return c.Delete(fmt.Sprintf("/criteria/%v", criteriaId)).Do(nil)
}

func (c *client) createSubCriteria(name string, criteriaId uuid.UUID) (services.SubCriteriaInfo, error) {
	body := map[string]interface{}{"name": name, "criteria_id": criteriaId}
	var info services.SubCriteriaInfo
	err := c.Post("/subcriteria/create").Json(body).Do(&info)
	return info, err
}

func (c *client) createRatingValue(name string, value int) (services.RatingInfo, error) {
	body := map[string]interface{}{"name": name, "value": value}
	var info services.RatingInfo
	err := c.Post("/rating/create").Json(body).Do(&info)
	return info, err
}

func (c *client) listRatingValues() ([]services.RatingInfo, error) {
	var values []services.RatingInfo
	err := c.Get("/rating/values").Do(&values)
	return values, err
}

type submitRatingArgs struct {
	EventId       uuid.UUID `json:"event_id"`
	CriteriaId    uuid.UUID `json:"criteria_id"`
	SubCriteriaId uuid.UUID `json:"sub_criteria_id"`
	RatingId      uuid.UUID `json:"rating_id"`
}

func (c *client) submitRating(args submitRatingArgs) (services.RatingEntryInfo, error) {
	var entry services.RatingEntryInfo
	err := c.Post("/rating/submit").Json(args).Do(&entry)
	return entry, err
}

func (c *client) listRatings(query string) ([]services.RatingEntryInfo, error) {
	endpoint := "/rating/list"
	if query != "" {
		endpoint += "?" + query
	}
	var entries []services.RatingEntryInfo
	err := c.Get(endpoint).Do(&entries)
	return entries, err
}

func (c *client) getRating(entryId uuid.UUID) (services.RatingEntryInfo, error) {
	var entry services.RatingEntryInfo
	err := c.Get(fmt.Sprintf("/rating/%v", entryId)).Do(&entry)
	return entry, err
}

func (c *client) deleteRating(entryId uuid.UUID) error {
	return c.Delete(fmt.Sprintf("/rating/%v", entryId)).Do(nil)
}
