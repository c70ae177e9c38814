package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"meritboard/backend/auth"
	"meritboard/backend/images"
	"meritboard/backend/schema"
	"meritboard/utils"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type UserService struct {
	db         *gorm.DB
	userAuth   auth.IdentityProvider
	imageStore images.ImageStore
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.userAuth.AllowDirectSignup() {
			r.Post("/signup", s.Signup)
		}

		r.Get("/login", s.LoginWithEmail)
		r.Post("/login-with-token", s.LoginWithToken)

		r.Get("/{user_id}", s.GetUser)
		r.Put("/{user_id}", s.UpdateUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/list", s.List)
		r.Get("/me", s.Me)

		r.Patch("/avatar", s.ChangeAvatar)

		r.Delete("/{user_id}", s.DeleteUser)
		r.Patch("/{user_id}/salary", s.ChangeSalary)
	})

	return r
}

type signupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type signupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(signupMetric)
	defer timer.ObserveDuration()

	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Email == "" || params.Password == "" {
		http.Error(w, "email and password must be specified", http.StatusBadRequest)
		return
	}

	userId, err := s.userAuth.CreateUser(params.FirstName, params.LastName, params.Email, params.Password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrProviderUnavailable):
			responseCode = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("error creating user: %v", err), responseCode)
		return
	}

	res := signupResponse{UserId: userId}
	utils.WriteJsonResponse(w, res)
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(loginMetric)
	defer timer.ObserveDuration()

	email, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			responseCode = http.StatusNotFound
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	res := loginResponse{UserId: login.UserId, AccessToken: login.AccessToken}
	utils.WriteJsonResponse(w, res)
}

type loginWithTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (s *UserService) LoginWithToken(w http.ResponseWriter, r *http.Request) {
	var params loginWithTokenRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	login, err := s.userAuth.LoginWithToken(params.AccessToken)
	if err != nil {
		http.Error(w, fmt.Sprintf("login failed: %v", err), http.StatusInternalServerError)
		return
	}

	res := loginResponse{UserId: login.UserId, AccessToken: login.AccessToken}
	utils.WriteJsonResponse(w, res)
}

// UserInfo is the public projection of a user record.
type UserInfo struct {
	Id        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	Avatar    string    `json:"avatar"`
}

// UserDetail adds the fields only the caller themselves (or an admin
// acting on them) should see.
type UserDetail struct {
	UserInfo
	Salary int64 `json:"salary"`
}

func convertToUserInfo(user *schema.User) UserInfo {
	return UserInfo{
		Id:        user.Id,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Admin:     user.IsAdmin,
		Avatar:    user.Avatar,
	}
}

func convertToUserDetail(user *schema.User) UserDetail {
	return UserDetail{UserInfo: convertToUserInfo(user), Salary: user.Salary}
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	var users []schema.User
	result := s.db.Order("email").Find(&users)
	if result.Error != nil {
		slog.Error("sql error listing users", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing users: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, convertToUserInfo(&u))
	}
	utils.WriteJsonResponse(w, infos)
}

func (s *UserService) GetUser(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := schema.GetUser(userId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting user %v: %v", userId, err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToUserInfo(&user))
}

func (s *UserService) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	user, err := schema.GetUser(caller.Id, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting user info: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToUserDetail(&user))
}

type updateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *UserService) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var updated schema.User

	err = s.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		if params.FirstName != "" {
			user.FirstName = params.FirstName
		}
		if params.LastName != "" {
			user.LastName = params.LastName
		}

		result := txn.Save(&user)
		if result.Error != nil {
			slog.Error("sql error updating user", "user_id", userId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		updated = user
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating user %v: %v", userId, err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToUserInfo(&updated))
}

func (s *UserService) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !caller.IsAdmin {
		http.Error(w, "caller lacks delete privilege", http.StatusForbidden)
		return
	}

	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var deleted schema.User

	err = s.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Limit(1).Find(&deleted, "id = ?", userId)
		if result.Error != nil {
			slog.Error("sql error finding user to delete", "user_id", userId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected == 0 {
			return CodedError(schema.ErrUserNotFound, http.StatusNotFound)
		}

		deleteResult := txn.Delete(&schema.UserSubCriteria{}, "user_id = ?", userId)
		if deleteResult.Error != nil {
			slog.Error("sql error deleting user rating entries", "user_id", userId, "error", deleteResult.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		deleteResult = txn.Delete(&schema.User{Id: userId})
		if deleteResult.Error != nil {
			slog.Error("sql error deleting user", "user_id", userId, "error", deleteResult.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting user %v: %v", userId, err), GetResponseCode(err))
		return
	}

	// The local row is gone at this point, external cleanup is best effort.
	if err := s.userAuth.DeleteUser(userId); err != nil {
		slog.Error("error deleting external identity for removed user", "user_id", userId, "error", err)
	}
	if deleted.AvatarAssetId != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := s.imageStore.Delete(ctx, *deleted.AvatarAssetId); err != nil {
			slog.Error("error deleting avatar for removed user", "user_id", userId, "error", err)
		}
	}

	utils.WriteJsonResponse(w, convertToUserInfo(&deleted))
}

type changeSalaryRequest struct {
	Salary int64 `json:"salary"`
}

func (s *UserService) ChangeSalary(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !caller.IsAdmin {
		http.Error(w, fmt.Sprintf("user %v is not allowed to change salaries", caller.Id), http.StatusForbidden)
		return
	}

	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params changeSalaryRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Salary < 0 {
		http.Error(w, "salary cannot be negative", http.StatusBadRequest)
		return
	}

	var updated schema.User

	err = s.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		user.Salary = params.Salary

		result := txn.Save(&user)
		if result.Error != nil {
			slog.Error("sql error updating user salary", "user_id", userId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		updated = user
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error changing salary for user %v: %v", userId, err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToUserDetail(&updated))
}

func readAvatarPart(r *http.Request) (string, io.Reader, error) {
	boundary, err := getMultipartBoundary(r)
	if err != nil {
		return "", nil, err
	}

	reader := multipart.NewReader(r.Body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, CodedError(fmt.Errorf("error parsing multipart request: %w", err), http.StatusBadRequest)
		}

		if part.FormName() == "avatar" {
			if part.FileName() == "" {
				return "", nil, CodedError(fmt.Errorf("avatar filename cannot be empty"), http.StatusUnprocessableEntity)
			}
			return part.FileName(), part, nil
		}
	}

	return "", nil, CodedError(fmt.Errorf("missing 'avatar' file in multipart request"), http.StatusBadRequest)
}

func (s *UserService) ChangeAvatar(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(avatarUploadMetric)
	defer timer.ObserveDuration()

	caller, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename, data, err := readAvatarPart(r)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	if caller.AvatarAssetId != nil {
		// Replacing the old asset is best effort, a stale image on the host
		// must not block updating the avatar.
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		err := s.imageStore.Delete(ctx, *caller.AvatarAssetId)
		cancel()
		if err != nil {
			slog.Error("error deleting previous avatar", "user_id", caller.Id, "asset_id", *caller.AvatarAssetId, "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	image, err := s.imageStore.Upload(ctx, filename, data)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, images.ErrImageRejected):
			responseCode = http.StatusBadRequest
		case errors.Is(err, images.ErrHostUnavailable):
			responseCode = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("error uploading avatar: %v", err), responseCode)
		return
	}

	var updated schema.User

	err = s.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(caller.Id, txn)
		if err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		user.Avatar = image.Url
		user.AvatarAssetId = &image.AssetId

		result := txn.Save(&user)
		if result.Error != nil {
			slog.Error("sql error updating user avatar", "user_id", caller.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		updated = user
		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating avatar: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, convertToUserDetail(&updated))
}
