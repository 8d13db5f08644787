package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/expensetracker/expenses/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid         string      `json:"uid"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	ImageUrl    string      `json:"imageUrl,omitempty"`
	Settings    SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CurrentUser godoc
// @Summary Get current user
// @Description Retrieve the currently authenticated user's information
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "User Not Found"
// @Router /api/user/current [get]
// @Security BearerAuth
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		writeUserError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(&currentUser)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// UpdateUser godoc
// @Summary Update current user
// @Description Update display name, currency and timezone of the current user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 401 {string} string "Unauthorized"
// @Router /api/user/current [put]
// @Security BearerAuth
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Updating user")

	var user UserDTO
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	log.Debugf("Updating user: %+v", user)

	updatedUser, err := h.userService.UpdateUser(r.Context(), dtoToUser(user))
	if err != nil {
		writeUserError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(&updatedUser)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// DeleteCurrentUser godoc
// @Summary Delete current user
// @Description Delete the current user together with all records and budgets
// @Tags User
// @Success 204 "No Content"
// @Failure 401 {string} string "Unauthorized"
// @Router /api/user/current [delete]
// @Security BearerAuth
func (h *Handler) DeleteCurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Deleting current user")

	if err := h.userService.DeleteCurrentUser(r.Context()); err != nil {
		writeUserError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, ErrUserNotFound):
		rest.WriteError(w, http.StatusNotFound, "User not found", "")
	case errors.Is(err, ErrUserDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
	default:
		log.Errorf("user request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func userToDTO(user *User) UserDTO {
	return UserDTO{
		Uid:         user.Uid,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		ImageUrl:    user.ImageUrl,
		Settings: SettingsDTO{
			Currency: user.Settings.Currency,
			Timezone: user.Settings.Timezone,
		},
	}
}

func dtoToUser(userDTO UserDTO) User {
	return User{
		Uid:         userDTO.Uid,
		Email:       userDTO.Email,
		DisplayName: userDTO.DisplayName,
		ImageUrl:    userDTO.ImageUrl,
		Settings: Settings{
			Currency: userDTO.Settings.Currency,
			Timezone: userDTO.Settings.Timezone,
		},
	}
}
