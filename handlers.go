package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/camu740/PayTrack/models"
	"github.com/camu740/PayTrack/pkg/installment"
	"github.com/camu740/PayTrack/pkg/report"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.GET("/debt", getDebtHandler)
	authGroup.PUT("/debt", upsertDebtHandler)
	authGroup.PATCH("/debt/quota", updateQuotaHandler)
	authGroup.POST("/payments", createPaymentHandler)
	authGroup.GET("/payments", listPaymentsHandler)
	authGroup.GET("/status", statusHandler)
	authGroup.GET("/report", reportHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		c.Set("email", email)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	emailVal, _ := c.Get("email")
	if emailVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing email"})
		return
	}
	email := emailVal.(string)
	c.JSON(http.StatusOK, gin.H{"email": email})
}

// getUserFromContext fetches the currently authenticated user using the email set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	emailVal, _ := c.Get("email")
	if emailVal == nil {
		return nil, false
	}
	email := emailVal.(string)
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// parsePositiveDecimal parses a user-supplied amount. Anything non-numeric or
// not strictly positive fails.
func parsePositiveDecimal(s string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || v.Sign() <= 0 {
		return decimal.Decimal{}, false
	}
	return v, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Email           string `json:"email" binding:"required"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// confirm field is optional for API clients but must match when present
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrPasswordMismatch.Message()})
		return
	}
	if err := RegisterUser(req.Email, req.Password); err != nil {
		var kind ErrKind
		if errors.As(err, &kind) {
			status := http.StatusBadRequest
			if kind == ErrEmailInUse {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": kind.Message()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrUnknown.Message()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Message()})
		return
	}
	// Generate JWT token. Resolve role name from RoleID (we only store role_id).
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": user.Email,
		"role":  roleName,
		"exp":   time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// create refresh token
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	// generate random 32-byte token (hex)
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	// hash for storage
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	// load user
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	// create access token
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": user.Email,
		"role":  roleName,
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (used on sign-out)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// getDebtHandler returns the user's debt configuration, 404 when never set.
func getDebtHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var cfg models.DebtConfig
	if err := db.Where("user_id = ?", user.ID).First(&cfg).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrConfigMissing.Message()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_amount":  cfg.TotalAmount,
		"default_quota": cfg.DefaultQuota,
		"updated_at":    cfg.UpdatedAt,
	})
}

// upsertDebtHandler creates or fully overwrites the debt configuration.
// Concurrent writers are last-write-wins; no conflict resolution is added.
func upsertDebtHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		TotalAmount  string `json:"total_amount" binding:"required"`
		DefaultQuota string `json:"default_quota" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	total, ok2 := parsePositiveDecimal(req.TotalAmount)
	if !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidAmount.Message()})
		return
	}
	quota, ok2 := parsePositiveDecimal(req.DefaultQuota)
	if !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidQuota.Message()})
		return
	}
	var cfg models.DebtConfig
	err := db.Where("user_id = ?", user.ID).First(&cfg).Error
	switch {
	case err == nil:
		cfg.TotalAmount = total
		cfg.DefaultQuota = quota
		err = db.Save(&cfg).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		cfg = models.DebtConfig{UserID: user.ID, TotalAmount: total, DefaultQuota: quota}
		err = db.Create(&cfg).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrPersistence.Message()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_amount": cfg.TotalAmount, "default_quota": cfg.DefaultQuota})
}

// updateQuotaHandler changes only the default quota of an existing configuration.
func updateQuotaHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		DefaultQuota string `json:"default_quota" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quota, ok2 := parsePositiveDecimal(req.DefaultQuota)
	if !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidQuota.Message()})
		return
	}
	var cfg models.DebtConfig
	if err := db.Where("user_id = ?", user.ID).First(&cfg).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrConfigMissing.Message()})
		return
	}
	cfg.DefaultQuota = quota
	if err := db.Save(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrPersistence.Message()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"default_quota": cfg.DefaultQuota})
}

type paymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Concept   string          `json:"concept"`
	CreatedAt time.Time       `json:"created_at"`
}

// createPaymentHandler appends a payment to the user's ledger. Payments are
// immutable once created.
func createPaymentHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Amount  string `json:"amount" binding:"required"`
		Concept string `json:"concept"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, ok2 := parsePositiveDecimal(req.Amount)
	if !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidAmount.Message()})
		return
	}
	concept := strings.TrimSpace(req.Concept)
	if len([]rune(concept)) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrConceptTooLong.Message()})
		return
	}
	p := models.Payment{UserID: user.ID, PublicID: uuid.New(), Amount: amount, Concept: concept}
	if err := db.Create(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrPersistence.Message()})
		return
	}
	c.JSON(http.StatusOK, paymentResponse{ID: p.PublicID, Amount: p.Amount, Concept: p.Concept, CreatedAt: p.CreatedAt})
}

// listPaymentsHandler returns the user's payments, newest first.
func listPaymentsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	payments, err := loadPayments(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentResponse{ID: p.PublicID, Amount: p.Amount, Concept: p.Concept, CreatedAt: p.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

// loadPayments fetches the full ledger newest first; id breaks ties on equal
// timestamps.
func loadPayments(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := db.Where("user_id = ?", userID).Order("created_at desc, id desc").Find(&payments).Error
	return payments, err
}

// statusHandler recomputes the derived debt status from the configuration and
// the ledger. Nothing here is ever cached or stored.
func statusHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var cfg models.DebtConfig
	if err := db.Where("user_id = ?", user.ID).First(&cfg).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrConfigMissing.Message()})
		return
	}
	payments, err := loadPayments(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	totalPaid := installment.SumPayments(payments)
	st := installment.ComputeStatus(cfg.TotalAmount, totalPaid, cfg.DefaultQuota)
	percent := decimal.Zero
	if cfg.TotalAmount.Sign() > 0 {
		percent = totalPaid.Div(cfg.TotalAmount).Mul(decimal.NewFromInt(100)).Round(2)
	}
	c.JSON(http.StatusOK, gin.H{
		"total_amount":       cfg.TotalAmount,
		"total_paid":         totalPaid,
		"percent_paid":       percent,
		"remaining_amount":   st.RemainingAmount,
		"remaining_payments": st.RemainingPayments,
		"adjusted_quota":     st.AdjustedQuota,
	})
}

// reportHandler streams the PDF export as a download. The filename carries a
// timestamp to the second.
func reportHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var cfg models.DebtConfig
	if err := db.Where("user_id = ?", user.ID).First(&cfg).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrConfigMissing.Message()})
		return
	}
	payments, err := loadPayments(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	totalPaid := installment.SumPayments(payments)
	pdfBytes, err := report.Generate(cfg, payments, totalPaid)
	if err != nil {
		// export failures surface the underlying error text
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(time.Now())+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
