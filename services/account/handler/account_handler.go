package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	account "auction-house/internal/accountService"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/session"
	"auction-house/internal/views"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type AccountServiceInterface interface {
	Register(ctx context.Context, c account.Credentials) (models.User, error)
	Login(ctx context.Context, c account.Credentials) (models.Identity, error)
}

// credentialsForm is the body of the login and register forms
type credentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (f credentialsForm) credentials() account.Credentials {
	return account.Credentials{Username: f.Username, Password: f.Password}
}

type AccountHandler struct {
	service AccountServiceInterface
}

func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

func renderCredentials(c *gin.Context, status int, page, title, username string, errs map[string]string, notice string) {
	p := views.Page{Title: title, Username: username, Errors: errs}
	if notice != "" {
		p.Flashes = []session.FlashMessage{{Type: session.FlashDanger, Message: notice}}
	}
	views.Render(c, status, page, p)
}

// RegisterFormHandler handles GET /register
func (h *AccountHandler) RegisterFormHandler(c *gin.Context) {
	renderCredentials(c, http.StatusOK, views.PageRegister, "Register", "", nil, "")
}

// RegisterHandler handles POST /register and signs the new user in
func (h *AccountHandler) RegisterHandler(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		views.RenderError(c, http.StatusBadRequest, "invalid request payload")
		utils.Warn("RegisterHandler: binding error", map[string]any{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), form.credentials())
	if err != nil {
		status, _ := helpers.MapErrorToHTTP(err)
		switch {
		case errors.Is(err, auctionerrors.ErrValidation):
			renderCredentials(c, status, views.PageRegister, "Register", form.Username, auctionerrors.FieldErrors(err), "")
		case errors.Is(err, auctionerrors.ErrUserExists):
			renderCredentials(c, status, views.PageRegister, "Register", form.Username, map[string]string{"username": "Username is already taken."}, "")
		default:
			views.RenderError(c, status, "internal server error")
			utils.Error("RegisterHandler: failed to register user", map[string]any{"username": form.Username, "error": err.Error()})
			return
		}
		utils.Warn("RegisterHandler: registration rejected", map[string]any{"username": form.Username, "error": err.Error()})
		return
	}

	id := models.Identity{UserID: user.ID, Username: user.Username}
	if err := session.SignIn(c, id); err != nil {
		views.RenderError(c, http.StatusInternalServerError, "internal server error")
		utils.Error("RegisterHandler: failed to start session", map[string]any{"user_id": user.ID, "error": err.Error()})
		return
	}

	session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Welcome, %s! Your account has been created.", user.Username))
	c.Redirect(http.StatusSeeOther, "/")
	helpers.LogSuccess("RegisterHandler", "user registered", map[string]any{"user_id": user.ID})
}

// LoginFormHandler handles GET /login
func (h *AccountHandler) LoginFormHandler(c *gin.Context) {
	renderCredentials(c, http.StatusOK, views.PageLogin, "Log in", "", nil, "")
}

// LoginHandler handles POST /login
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		views.RenderError(c, http.StatusBadRequest, "invalid request payload")
		utils.Warn("LoginHandler: binding error", map[string]any{"error": err.Error()})
		return
	}

	id, err := h.service.Login(c.Request.Context(), form.credentials())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		if status == http.StatusInternalServerError {
			views.RenderError(c, status, message)
			utils.Error("LoginHandler: login failed", map[string]any{"username": form.Username, "error": err.Error()})
			return
		}
		renderCredentials(c, status, views.PageLogin, "Log in", form.Username, nil, "Invalid username or password.")
		utils.Warn("LoginHandler: login rejected", map[string]any{"username": form.Username})
		return
	}

	if err := session.SignIn(c, id); err != nil {
		views.RenderError(c, http.StatusInternalServerError, "internal server error")
		utils.Error("LoginHandler: failed to start session", map[string]any{"user_id": id.UserID, "error": err.Error()})
		return
	}

	session.AddFlash(c, session.FlashSuccess, fmt.Sprintf("Welcome back, %s.", id.Username))
	c.Redirect(http.StatusSeeOther, "/")
	helpers.LogSuccess("LoginHandler", "user logged in", map[string]any{"user_id": id.UserID})
}

// LogoutHandler handles POST /logout
func (h *AccountHandler) LogoutHandler(c *gin.Context) {
	actor := session.Identity(c)
	if err := session.SignOut(c); err != nil {
		utils.Error("LogoutHandler: failed to clear session", map[string]any{"user_id": actor.UserID, "error": err.Error()})
	}

	session.AddFlash(c, session.FlashSuccess, "You have been logged out.")
	c.Redirect(http.StatusSeeOther, "/")
	helpers.LogSuccess("LogoutHandler", "user logged out", map[string]any{"user_id": actor.UserID})
}
