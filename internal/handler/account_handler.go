package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"payment_ledger/internal/middleware"
	"payment_ledger/internal/model"
	"payment_ledger/internal/repository"
	"payment_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles balance, payment, history and profile requests
type AccountHandler struct {
	service service.LedgerService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(s service.LedgerService) *AccountHandler {
	return &AccountHandler{service: s}
}

// Helper to get the authenticated account ID from context
func getAuthAccountID(c *gin.Context) (int64, error) {
	accountIDVal, exists := c.Get(middleware.AuthAccountKey)
	if !exists {
		return 0, errors.New("account ID not found in context")
	}
	accountID, ok := accountIDVal.(int64)
	if !ok {
		return 0, errors.New("invalid account ID type in context")
	}
	return accountID, nil
}

func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID, err := getAuthAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error getting balance: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *AccountHandler) MakePayment(c *gin.Context) {
	accountID, err := getAuthAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !phonePattern.MatchString(req.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number must contain only digits"})
		return
	}

	payment, err := h.service.Pay(c.Request.Context(), accountID, req.Phone, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrLockTimeout):
			// Transient: the account row was busy, the caller may retry
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			log.Printf("Error making payment: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to make payment"})
		}
		return
	}
	c.JSON(http.StatusCreated, model.NewPaymentView(*payment))
}

func (h *AccountHandler) GetHistory(c *gin.Context) {
	accountID, err := getAuthAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size parameter"})
		return
	}

	payments, err := h.service.History(c.Request.Context(), accountID, page, size)
	if err != nil {
		log.Printf("Error getting payment history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	views := make([]model.PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, model.NewPaymentView(p))
	}
	c.JSON(http.StatusOK, views)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	accountID, err := getAuthAccountID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var patch model.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	acc, err := h.service.UpdateProfile(c.Request.Context(), accountID, patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrLockTimeout):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			log.Printf("Error updating profile: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		}
		return
	}
	c.JSON(http.StatusOK, model.NewProfile(acc))
}

// RegisterAccountRoutes registers account routes behind the auth middleware
func (h *AccountHandler) RegisterAccountRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	accountRoutes := rg.Group("")
	accountRoutes.Use(authMW)
	{
		accountRoutes.GET("/balance", h.GetBalance)
		accountRoutes.POST("/payments", h.MakePayment)
		accountRoutes.GET("/payments", h.GetHistory)
		accountRoutes.POST("/profile", h.UpdateProfile)
	}
}
