package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

const profileImageField = "profileImage"

type accountMessages struct {
	registered     string
	loggedIn       string
	profileFetched string
	profileUpdated string
}

var (
	shopMessages = accountMessages{
		registered:     "User registered successfully",
		loggedIn:       "Login successful",
		profileFetched: "Profile retrieved successfully",
		profileUpdated: "Profile updated successfully",
	}
	auctionMessages = accountMessages{
		registered:     "Auction user registered successfully",
		loggedIn:       "Auction user login successful",
		profileFetched: "Auction profile retrieved successfully",
		profileUpdated: "Auction profile updated successfully",
	}
)

// AuthHandler exposes the account lifecycle endpoints.
type AuthHandler struct {
	accounts       *usecase.AccountService
	maxUploadBytes int64
	auction        bool
	messages       accountMessages
	now            func() time.Time
}

// AuthHandlerOption configures optional AuthHandler behaviour.
type AuthHandlerOption func(*AuthHandler)

// WithMaxUploadBytes bounds profile image uploads read from multipart bodies.
func WithMaxUploadBytes(n int64) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.maxUploadBytes = n
	}
}

// WithAuctionSurface switches messages and the login body to the auction flavour.
func WithAuctionSurface() AuthHandlerOption {
	return func(h *AuthHandler) {
		h.auction = true
		h.messages = auctionMessages
	}
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(accounts *usecase.AccountService, opts ...AuthHandlerOption) *AuthHandler {
	handler := &AuthHandler{
		accounts: accounts,
		messages: shopMessages,
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}

	return handler
}

// AuthRouteMiddlewares groups the middleware chains applied to account routes.
type AuthRouteMiddlewares struct {
	Authenticated  gin.HandlerFunc
	Admin          gin.HandlerFunc
	Register       []gin.HandlerFunc
	Login          []gin.HandlerFunc
	ForgotPassword []gin.HandlerFunc
}

func chain(mws []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mws)+1)
	out = append(out, mws...)
	return append(out, h)
}

// RegisterRoutes binds the /auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, mw AuthRouteMiddlewares) {
	r.POST("/register", chain(mw.Register, h.register)...)
	r.POST("/login", chain(mw.Login, h.login)...)
	r.POST("/forgot-password", chain(mw.ForgotPassword, h.forgotPassword)...)

	r.GET("/profile", mw.Authenticated, h.profile)
	r.PUT("/profile", mw.Authenticated, h.updateProfile)
	r.PATCH("/profile/image", mw.Authenticated, h.updateProfileImage)

	r.GET("/users", mw.Authenticated, h.listUsers)
	r.GET("/users/active", mw.Authenticated, h.listActiveUsers)
	r.GET("/users/:id", mw.Authenticated, h.getUser)
	r.PATCH("/users/:id/disable", mw.Authenticated, mw.Admin, h.Disable)
}

// RegisterAuctionRoutes binds the auction mirror of the account routes.
func (h *AuthHandler) RegisterAuctionRoutes(r *gin.RouterGroup, mw AuthRouteMiddlewares) {
	r.POST("/register", chain(mw.Register, h.register)...)
	r.POST("/login", chain(mw.Login, h.login)...)
	r.GET("/profile", mw.Authenticated, h.profile)
	r.PUT("/profile", mw.Authenticated, h.updateProfile)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}

	dob, err := optionalDate(&req.DateOfBirth)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Date of birth must be a valid date"))
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       nonEmpty(req.Phone),
		DateOfBirth: dob,
		Gender:      domain.Gender(req.Gender),
		Role:        domain.Role(req.Role),
		Notes:       nonEmpty(req.Notes),
		ReferredBy:  nonEmpty(req.ReferredBy),
		Preferences: domain.PreferenceOverrides{
			Currency: req.Currency,
			Language: req.Language,
			Timezone: req.Timezone,
		},
		ProfileImage: image,
	})
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}

	respond(c, http.StatusCreated, h.messages.registered, newAccountResponse(account, h.now()))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	result, err := h.accounts.Login(c.Request.Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	})
	if err != nil {
		respondError(c, err, "Login failed", ErrorCase{
			Err:     domain.ErrNotFound,
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("User not found under the email %s", req.Email),
		})
		return
	}

	c.Header(middleware.TokenHeader, result.Token)
	user := newAccountResponse(result.Account, h.now())

	if h.auction {
		respond(c, http.StatusOK, h.messages.loggedIn, AuthPayload{User: user, Token: result.Token, ExpiresAt: result.ExpiresAt})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:  true,
		Message:  h.messages.loggedIn,
		Token:    result.Token,
		UserData: user,
	})
}

func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email, req.NewPass); err != nil {
		respondError(c, err, "Forgot password error", ErrorCase{
			Err:     domain.ErrNotFound,
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("No user found with email %s", req.Email),
		})
		return
	}

	respond(c, http.StatusOK, "Password updated successfully", nil)
}

func (h *AuthHandler) profile(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	account, err := h.accounts.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "Error fetching profile", userNotFound)
		return
	}

	respond(c, http.StatusOK, h.messages.profileFetched, newAccountResponse(account, h.now()))
}

func (h *AuthHandler) updateProfile(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingFailure(c, err))
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		respondError(c, err, "Profile update failed")
		return
	}

	dob, err := optionalDate(req.DateOfBirth)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Date of birth must be a valid date"))
		return
	}

	var gender *domain.Gender
	if req.Gender != nil {
		g := domain.Gender(*req.Gender)
		gender = &g
	}

	ctx := c.Request.Context()
	account, err := h.accounts.UpdateProfile(ctx, accountID, domain.ProfilePatch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		DateOfBirth: dob,
		Gender:      gender,
		Notes:       req.Notes,
	})
	if err == nil && image != nil {
		account, err = h.accounts.UpdateProfileImage(ctx, accountID, *image)
	}
	if err != nil {
		respondError(c, err, "Profile update failed", userNotFound)
		return
	}

	respond(c, http.StatusOK, h.messages.profileUpdated, newAccountResponse(account, h.now()))
}

func (h *AuthHandler) updateProfileImage(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		respondError(c, err, "Profile image update failed")
		return
	}
	if image == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Profile image is required"))
		return
	}

	account, err := h.accounts.UpdateProfileImage(c.Request.Context(), accountID, *image)
	if err != nil {
		respondError(c, err, "Profile image update failed", userNotFound)
		return
	}

	respond(c, http.StatusOK, "Profile image updated successfully", gin.H{"profileImage": account.ProfileImage})
}

func (h *AuthHandler) listUsers(c *gin.Context) {
	h.list(c, domain.AccountFilter{}, "Users not found in database")
}

func (h *AuthHandler) listActiveUsers(c *gin.Context) {
	h.list(c, domain.AccountFilter{ActiveOnly: true}, "Active users not found in database")
}

func (h *AuthHandler) list(c *gin.Context, filter domain.AccountFilter, failure string) {
	accounts, err := h.accounts.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, failure)
		return
	}

	now := h.now()
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountResponse(a, now))
	}

	count := len(out)
	c.JSON(http.StatusOK, Response{Success: true, Count: &count, Data: out})
}

func (h *AuthHandler) getUser(c *gin.Context) {
	account, err := h.accounts.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Error fetching user", userNotFound)
		return
	}

	respond(c, http.StatusOK, "", newAccountResponse(account, h.now()))
}

// Disable soft-deletes the account named by :id. Admin only.
func (h *AuthHandler) Disable(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedAccountID(c)

	account, err := h.accounts.Disable(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Error in disabling user", userNotFound)
		return
	}

	respond(c, http.StatusOK, "User disabled successfully", newAccountResponse(account, h.now()))
}

var userNotFound = ErrorCase{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: "User not found"}

// readImage returns nil when the request carries no profile image part.
func (h *AuthHandler) readImage(c *gin.Context) (*domain.ImageUpload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}

	header, err := c.FormFile(profileImageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadRejected, err)
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrUploadRejected, h.maxUploadBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadRejected, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadRejected, err)
	}

	return &domain.ImageUpload{Filename: header.Filename, Data: data}, nil
}

func nonEmpty(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
