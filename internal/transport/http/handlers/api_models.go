package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

// Response is the uniform success envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// ErrorResponse is the uniform failure envelope with trace ID for debugging.
type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	TraceID string              `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Message: message,
		TraceID: traceIDStr,
	}
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// AccountResponse is the public account read model. The credential hash never leaves the service.
type AccountResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	FullName        string     `json:"fullName"`
	Phone           *string    `json:"phone,omitempty"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Gender          string     `json:"gender"`
	Role            string     `json:"role"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsPhoneVerified bool       `json:"isPhoneVerified"`
	IsActive        bool       `json:"isActive"`
	IsDeleted       bool       `json:"isDeleted"`
	IsLocked        bool       `json:"isLocked"`
	TotalOrders     int        `json:"totalOrders"`
	TotalSpent      float64    `json:"totalSpent"`
	LastOrderDate   *time.Time `json:"lastOrderDate,omitempty"`
	ReferralCode    *string    `json:"referralCode,omitempty"`
	ReferredBy      *string    `json:"referredBy,omitempty"`
	LoyaltyPoints   int        `json:"loyaltyPoints"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	ProfileImage    *string    `json:"profileImage,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func newAccountResponse(a domain.Account, now time.Time) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		Email:           a.Email,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		FullName:        a.FullName(),
		Phone:           a.Phone,
		DateOfBirth:     a.DateOfBirth,
		Gender:          string(a.Gender),
		Role:            string(a.Role),
		IsEmailVerified: a.IsEmailVerified,
		IsPhoneVerified: a.IsPhoneVerified,
		IsActive:        a.IsActive,
		IsDeleted:       a.IsDeleted,
		IsLocked:        a.IsLocked(now),
		TotalOrders:     a.TotalOrders,
		TotalSpent:      a.TotalSpent,
		LastOrderDate:   a.LastOrderDate,
		ReferralCode:    a.ReferralCode,
		ReferredBy:      a.ReferredBy,
		LoyaltyPoints:   a.LoyaltyPoints,
		LastLogin:       a.LastLogin,
		ProfileImage:    a.ProfileImage,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// RegisterRequest is accepted as JSON or multipart form data.
type RegisterRequest struct {
	FirstName   string `json:"firstName" form:"firstName" binding:"required,min=2,max=50"`
	LastName    string `json:"lastName" form:"lastName" binding:"required,min=2,max=50"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	Password    string `json:"password" form:"password" binding:"required,min=6"`
	Phone       string `json:"phone" form:"phone" binding:"omitempty,phone"`
	DateOfBirth string `json:"dateOfBirth" form:"dateOfBirth" binding:"omitempty,pastdate"`
	Gender      string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	Role        string `json:"role" form:"role" binding:"omitempty,oneof=customer admin moderator vendor guest"`
	Notes       string `json:"notes" form:"notes" binding:"omitempty,max=500"`
	ReferredBy  string `json:"referredBy" form:"referredBy"`
	Currency    string `json:"currency" form:"currency" binding:"omitempty,oneof=USD EUR Rs"`
	Language    string `json:"language" form:"language" binding:"omitempty,oneof=en es fr de it pt ru zh ja ko ar"`
	Timezone    string `json:"timezone" form:"timezone" binding:"omitempty,timezone"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse keeps the original login body shape: the token next to the account.
type LoginResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Token    string          `json:"token"`
	UserData AccountResponse `json:"userData"`
}

// AuthPayload is the data block of the auction login response.
type AuthPayload struct {
	User      AccountResponse `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// ForgotPasswordRequest replaces the credential of the identified account.
type ForgotPasswordRequest struct {
	Email   string `json:"email" binding:"required,email"`
	NewPass string `json:"newPass" binding:"required,min=6"`
}

// UpdateProfileRequest lists the self-service profile fields. Email and role are not bindable.
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName" form:"firstName" binding:"omitempty,min=2,max=50"`
	LastName    *string `json:"lastName" form:"lastName" binding:"omitempty,min=2,max=50"`
	Phone       *string `json:"phone" form:"phone" binding:"omitempty,phone"`
	DateOfBirth *string `json:"dateOfBirth" form:"dateOfBirth" binding:"omitempty,pastdate"`
	Gender      *string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	Notes       *string `json:"notes" form:"notes" binding:"omitempty,max=500"`
}

// PreferencesResponse is the preference read model.
type PreferencesResponse struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Currency           string    `json:"currency"`
	Language           string    `json:"language"`
	Timezone           string    `json:"timezone"`
	DateFormat         string    `json:"dateFormat"`
	Newsletter         bool      `json:"newsletter"`
	SMSNotifications   bool      `json:"smsNotifications"`
	EmailNotifications bool      `json:"emailNotifications"`
	PushNotifications  bool      `json:"pushNotifications"`
	MarketingEmails    bool      `json:"marketingEmails"`
	OrderUpdates       bool      `json:"orderUpdates"`
	PriceAlerts        bool      `json:"priceAlerts"`
	StockNotifications bool      `json:"stockNotifications"`
	Theme              string    `json:"theme"`
	ItemsPerPage       int       `json:"itemsPerPage"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func newPreferencesResponse(p domain.Preferences) PreferencesResponse {
	return PreferencesResponse{
		ID:                 p.ID,
		UserID:             p.AccountID,
		Currency:           p.Currency,
		Language:           p.Language,
		Timezone:           p.Timezone,
		DateFormat:         p.DateFormat,
		Newsletter:         p.Newsletter,
		SMSNotifications:   p.SMSNotifications,
		EmailNotifications: p.EmailNotifications,
		PushNotifications:  p.PushNotifications,
		MarketingEmails:    p.MarketingEmails,
		OrderUpdates:       p.OrderUpdates,
		PriceAlerts:        p.PriceAlerts,
		StockNotifications: p.StockNotifications,
		Theme:              p.Theme,
		ItemsPerPage:       p.ItemsPerPage,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// PreferencesRequest is a partial preferences update.
type PreferencesRequest struct {
	Currency           *string `json:"currency" binding:"omitempty,oneof=USD EUR Rs"`
	Language           *string `json:"language" binding:"omitempty,oneof=en es fr de it pt ru zh ja ko ar"`
	Timezone           *string `json:"timezone" binding:"omitempty,timezone"`
	DateFormat         *string `json:"dateFormat" binding:"omitempty,oneof=MM/DD/YYYY DD/MM/YYYY YYYY-MM-DD"`
	Newsletter         *bool   `json:"newsletter"`
	SMSNotifications   *bool   `json:"smsNotifications"`
	EmailNotifications *bool   `json:"emailNotifications"`
	PushNotifications  *bool   `json:"pushNotifications"`
	MarketingEmails    *bool   `json:"marketingEmails"`
	OrderUpdates       *bool   `json:"orderUpdates"`
	PriceAlerts        *bool   `json:"priceAlerts"`
	StockNotifications *bool   `json:"stockNotifications"`
	Theme              *string `json:"theme" binding:"omitempty,oneof=light dark auto"`
	ItemsPerPage       *int    `json:"itemsPerPage" binding:"omitempty,min=10,max=100"`
}

func (r PreferencesRequest) patch() domain.PreferencesPatch {
	return domain.PreferencesPatch{
		Currency:           r.Currency,
		Language:           r.Language,
		Timezone:           r.Timezone,
		DateFormat:         r.DateFormat,
		Newsletter:         r.Newsletter,
		SMSNotifications:   r.SMSNotifications,
		EmailNotifications: r.EmailNotifications,
		PushNotifications:  r.PushNotifications,
		MarketingEmails:    r.MarketingEmails,
		OrderUpdates:       r.OrderUpdates,
		PriceAlerts:        r.PriceAlerts,
		StockNotifications: r.StockNotifications,
		Theme:              r.Theme,
		ItemsPerPage:       r.ItemsPerPage,
	}
}

// CartResponse is the cart read model with its derived totals.
type CartResponse struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"userId"`
	Items          []domain.CartItem      `json:"items"`
	AppliedCoupons []domain.AppliedCoupon `json:"appliedCoupons"`
	ShippingMethod *string                `json:"shippingMethod,omitempty"`
	ShippingCost   float64                `json:"shippingCost"`
	Subtotal       float64                `json:"subtotal"`
	TotalDiscount  float64                `json:"totalDiscount"`
	TotalTax       float64                `json:"totalTax"`
	TotalAmount    float64                `json:"totalAmount"`
	ItemCount      int                    `json:"itemCount"`
	LastUpdated    time.Time              `json:"lastUpdated"`
	ExpiresAt      time.Time              `json:"expiresAt"`
	IsActive       bool                   `json:"isActive"`
	IsExpired      bool                   `json:"isExpired"`
	Version        int64                  `json:"version"`
}

func newCartResponse(c domain.Cart, now time.Time) CartResponse {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	coupons := c.Coupons
	if coupons == nil {
		coupons = []domain.AppliedCoupon{}
	}
	return CartResponse{
		ID:             c.ID,
		UserID:         c.AccountID,
		Items:          items,
		AppliedCoupons: coupons,
		ShippingMethod: c.ShippingMethodID,
		ShippingCost:   c.ShippingCost,
		Subtotal:       c.Subtotal,
		TotalDiscount:  c.TotalDiscount,
		TotalTax:       c.TotalTax,
		TotalAmount:    c.TotalAmount,
		ItemCount:      c.ItemCount,
		LastUpdated:    c.LastUpdated,
		ExpiresAt:      c.ExpiresAt,
		IsActive:       c.IsActive,
		IsExpired:      c.IsExpired(now),
		Version:        c.Version,
	}
}

// AddCartItemRequest adds or merges a cart line.
type AddCartItemRequest struct {
	ProductID   string         `json:"productId" binding:"required"`
	Quantity    int            `json:"quantity" binding:"required,min=1,max=100"`
	Variant     domain.Variant `json:"variant"`
	PriceAtTime float64        `json:"priceAtTime" binding:"gte=0"`
	Discount    float64        `json:"discount" binding:"gte=0"`
	Tax         float64        `json:"tax" binding:"gte=0"`
	Notes       string         `json:"notes" binding:"max=200"`
}

// RemoveCartItemRequest identifies a line by product and variant.
type RemoveCartItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Variant   domain.Variant `json:"variant"`
}

// ApplyCouponRequest attaches a coupon discount.
type ApplyCouponRequest struct {
	Code           string  `json:"couponCode" binding:"required"`
	DiscountAmount float64 `json:"discountAmount" binding:"gte=0"`
}

// ShippingRequest selects a shipping method.
type ShippingRequest struct {
	MethodID string  `json:"methodId" binding:"required"`
	Cost     float64 `json:"cost" binding:"gte=0"`
}

// AddressRequest creates or replaces an address.
type AddressRequest struct {
	Type         string              `json:"type" binding:"required,oneof=billing shipping both"`
	FirstName    string              `json:"firstName" binding:"required,max=50"`
	LastName     string              `json:"lastName" binding:"required,max=50"`
	Company      *string             `json:"company" binding:"omitempty,max=100"`
	Phone        *string             `json:"phone" binding:"omitempty,phone"`
	Street       string              `json:"street" binding:"required,max=100"`
	Street2      *string             `json:"street2" binding:"omitempty,max=100"`
	City         string              `json:"city" binding:"required,max=50"`
	State        string              `json:"state" binding:"required,max=50"`
	PostalCode   string              `json:"postalCode" binding:"required,max=20"`
	Country      string              `json:"country"`
	CountryCode  string              `json:"countryCode" binding:"omitempty,countrycode"`
	Instructions *string             `json:"instructions" binding:"omitempty,max=200"`
	Coordinates  *domain.Coordinates `json:"coordinates"`
	Tags         []string            `json:"tags"`
	IsDefault    bool                `json:"isDefault"`
}

func (r AddressRequest) address() domain.Address {
	return domain.Address{
		Type:         domain.AddressType(r.Type),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Company:      r.Company,
		Phone:        r.Phone,
		Street:       r.Street,
		Street2:      r.Street2,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		CountryCode:  r.CountryCode,
		Instructions: r.Instructions,
		Coordinates:  r.Coordinates,
		Tags:         r.Tags,
	}
}

// AddressResponse is the address read model with derived names.
type AddressResponse struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	Type         string              `json:"type"`
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	FullName     string              `json:"fullName"`
	Company      *string             `json:"company,omitempty"`
	Phone        *string             `json:"phone,omitempty"`
	Street       string              `json:"street"`
	Street2      *string             `json:"street2,omitempty"`
	City         string              `json:"city"`
	State        string              `json:"state"`
	PostalCode   string              `json:"postalCode"`
	Country      string              `json:"country"`
	CountryCode  string              `json:"countryCode"`
	FullAddress  string              `json:"fullAddress"`
	IsDefault    bool                `json:"isDefault"`
	Instructions *string             `json:"instructions,omitempty"`
	Coordinates  *domain.Coordinates `json:"coordinates,omitempty"`
	IsVerified   bool                `json:"isVerified"`
	LastUsed     *time.Time          `json:"lastUsed,omitempty"`
	UsageCount   int                 `json:"usageCount"`
	Tags         []string            `json:"tags,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func newAddressResponse(a domain.Address) AddressResponse {
	return AddressResponse{
		ID:           a.ID,
		UserID:       a.AccountID,
		Type:         string(a.Type),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		FullName:     a.FullName(),
		Company:      a.Company,
		Phone:        a.Phone,
		Street:       a.Street,
		Street2:      a.Street2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		CountryCode:  a.CountryCode,
		FullAddress:  a.FullAddress(),
		IsDefault:    a.IsDefault,
		Instructions: a.Instructions,
		Coordinates:  a.Coordinates,
		IsVerified:   a.IsVerified,
		LastUsed:     a.LastUsed,
		UsageCount:   a.UsageCount,
		Tags:         a.Tags,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// PaymentMethodRequest creates or replaces a payment method.
type PaymentMethodRequest struct {
	Type          string  `json:"type" binding:"required,oneof=credit_card debit_card paypal bank_transfer apple_pay google_pay crypto"`
	LastFour      *string `json:"lastFour"`
	Brand         *string `json:"brand"`
	ExpiryMonth   *int    `json:"expiryMonth" binding:"omitempty,min=1,max=12"`
	ExpiryYear    *int    `json:"expiryYear"`
	PayPalEmail   *string `json:"paypalEmail" binding:"omitempty,email"`
	BankName      *string `json:"bankName" binding:"omitempty,max=100"`
	AccountType   *string `json:"accountType"`
	RoutingNumber *string `json:"routingNumber"`
	CryptoAddress *string `json:"cryptoAddress"`
	CryptoType    *string `json:"cryptoType"`
	Nickname      *string `json:"nickname" binding:"omitempty,max=50"`
	TokenID       *string `json:"tokenId"`
	Fingerprint   *string `json:"fingerprint"`
	IsDefault     bool    `json:"isDefault"`
}

func (r PaymentMethodRequest) method() domain.PaymentMethod {
	return domain.PaymentMethod{
		Type:          domain.PaymentKind(r.Type),
		LastFour:      r.LastFour,
		Brand:         r.Brand,
		ExpiryMonth:   r.ExpiryMonth,
		ExpiryYear:    r.ExpiryYear,
		PayPalEmail:   r.PayPalEmail,
		BankName:      r.BankName,
		AccountType:   r.AccountType,
		RoutingNumber: r.RoutingNumber,
		CryptoAddress: r.CryptoAddress,
		CryptoType:    r.CryptoType,
		Nickname:      r.Nickname,
		TokenID:       r.TokenID,
		Fingerprint:   r.Fingerprint,
	}
}

// PaymentMethodResponse omits the processor token and fingerprint.
type PaymentMethodResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Type          string     `json:"type"`
	LastFour      *string    `json:"lastFour,omitempty"`
	Brand         *string    `json:"brand,omitempty"`
	ExpiryMonth   *int       `json:"expiryMonth,omitempty"`
	ExpiryYear    *int       `json:"expiryYear,omitempty"`
	PayPalEmail   *string    `json:"paypalEmail,omitempty"`
	BankName      *string    `json:"bankName,omitempty"`
	AccountType   *string    `json:"accountType,omitempty"`
	RoutingNumber *string    `json:"routingNumber,omitempty"`
	CryptoAddress *string    `json:"cryptoAddress,omitempty"`
	CryptoType    *string    `json:"cryptoType,omitempty"`
	IsDefault     bool       `json:"isDefault"`
	Nickname      *string    `json:"nickname,omitempty"`
	AddedAt       time.Time  `json:"addedAt"`
	LastUsed      *time.Time `json:"lastUsed,omitempty"`
	UsageCount    int        `json:"usageCount"`
}

func newPaymentMethodResponse(p domain.PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID:            p.ID,
		UserID:        p.AccountID,
		Type:          string(p.Type),
		LastFour:      p.LastFour,
		Brand:         p.Brand,
		ExpiryMonth:   p.ExpiryMonth,
		ExpiryYear:    p.ExpiryYear,
		PayPalEmail:   p.PayPalEmail,
		BankName:      p.BankName,
		AccountType:   p.AccountType,
		RoutingNumber: p.RoutingNumber,
		CryptoAddress: p.CryptoAddress,
		CryptoType:    p.CryptoType,
		IsDefault:     p.IsDefault,
		Nickname:      p.Nickname,
		AddedAt:       p.AddedAt,
		LastUsed:      p.LastUsed,
		UsageCount:    p.UsageCount,
	}
}

// CreateNotificationRequest is the admin/internal notification payload.
type CreateNotificationRequest struct {
	UserID         string  `json:"userId" binding:"required"`
	Title          string  `json:"title" binding:"required,max=200"`
	Message        string  `json:"message" binding:"required,max=1000"`
	Type           string  `json:"type" binding:"required"`
	AuctionID      *string `json:"auctionId"`
	BidID          *string `json:"bidId"`
	DeliveryMethod string  `json:"deliveryMethod" binding:"omitempty,oneof=in_app email sms push"`
	Priority       string  `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	ActionURL      *string `json:"actionUrl" binding:"omitempty,url"`
	ActionText     *string `json:"actionText" binding:"omitempty,max=50"`
}

// NotificationResponse is the notification read model.
type NotificationResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Type           string     `json:"type"`
	AuctionID      *string    `json:"auctionId,omitempty"`
	BidID          *string    `json:"bidId,omitempty"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	DeliveryMethod string     `json:"deliveryMethod"`
	IsDelivered    bool       `json:"isDelivered"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	Priority       string     `json:"priority"`
	IsUrgent       bool       `json:"isUrgent"`
	ActionURL      *string    `json:"actionUrl,omitempty"`
	ActionText     *string    `json:"actionText,omitempty"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	IsExpired      bool       `json:"isExpired"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func newNotificationResponse(n domain.Notification, now time.Time) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		UserID:         n.AccountID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           string(n.Type),
		AuctionID:      n.AuctionID,
		BidID:          n.BidID,
		IsRead:         n.IsRead,
		ReadAt:         n.ReadAt,
		DeliveryMethod: n.DeliveryMethod,
		IsDelivered:    n.IsDelivered,
		DeliveredAt:    n.DeliveredAt,
		Priority:       n.Priority,
		IsUrgent:       n.IsUrgent,
		ActionURL:      n.ActionURL,
		ActionText:     n.ActionText,
		ExpiresAt:      n.ExpiresAt,
		IsExpired:      n.IsExpired(now),
		CreatedAt:      n.CreatedAt,
	}
}

// AddWishlistItemRequest saves a product to the wishlist.
type AddWishlistItemRequest struct {
	ProductID string  `json:"productId" binding:"required,max=64"`
	Notes     *string `json:"notes" binding:"omitempty,max=200"`
	Priority  string  `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// UpdateWishlistItemRequest edits the notes or priority of a saved product.
type UpdateWishlistItemRequest struct {
	Notes    *string `json:"notes" binding:"omitempty,max=200"`
	Priority *string `json:"priority" binding:"omitempty,oneof=low medium high"`
}

func (r UpdateWishlistItemRequest) patch() usecase.WishlistPatch {
	patch := usecase.WishlistPatch{Notes: r.Notes}
	if r.Priority != nil {
		p := domain.WishlistPriority(*r.Priority)
		patch.Priority = &p
	}
	return patch
}

// WishlistItemResponse is the wishlist read model.
type WishlistItemResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Notes     *string   `json:"notes,omitempty"`
	Priority  string    `json:"priority"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newWishlistItemResponse(w domain.WishlistItem) WishlistItemResponse {
	return WishlistItemResponse{
		ID:        w.ID,
		UserID:    w.AccountID,
		ProductID: w.ProductID,
		Notes:     w.Notes,
		Priority:  string(w.Priority),
		AddedAt:   w.AddedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// ListMeta describes a paginated listing without an unread counter.
type ListMeta struct {
	Total int `json:"total"`
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Skip   int `json:"skip"`
	Unread int `json:"unread"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
