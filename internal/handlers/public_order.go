package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

/* =========================
   REQUEST DTOs
========================= */

type orderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type orderCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address"`
}

type createGatewayOrderRequest struct {
	OrderID  string               `json:"orderId"`
	TxRef    string               `json:"txRef" binding:"required"`
	Customer orderCustomerRequest `json:"customer" binding:"required"`
	Items    []orderItemRequest   `json:"items" binding:"required"`
}

type createBankTransferOrderRequest struct {
	Customer orderCustomerRequest `json:"customer" binding:"required"`
	Items    []orderItemRequest   `json:"items" binding:"required"`
}

type submitReferenceRequest struct {
	Reference string  `json:"reference" binding:"required"`
	Amount    float64 `json:"amount"`
	Notes     string  `json:"notes"`
}

func toItemRequests(items []orderItemRequest) []orders.ItemRequest {
	out := make([]orders.ItemRequest, 0, len(items))
	for _, item := range items {
		out = append(out, orders.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func toCustomerInput(c orderCustomerRequest) orders.CustomerInput {
	return orders.CustomerInput{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

/* =========================
   CREATE ORDERS
========================= */

// CreateGatewayOrder persists a pending gateway order before the storefront
// redirects the customer to hosted checkout.
func CreateGatewayOrder(db *mongo.Database, svc *orders.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/gateway"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createGatewayOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		userID, err := userIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
		if err != nil {
			log.Println("[ORDER] [ERROR] token validation failed:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		order, err := svc.CreateGatewayOrder(c.Request.Context(), orders.CreateGatewayOrderInput{
			OrderID:  req.OrderID,
			TxRef:    req.TxRef,
			Customer: toCustomerInput(req.Customer),
			Items:    toItemRequests(req.Items),
			UserID:   userID,
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId": order.OrderID,
			"docId":   order.ID.Hex(),
			"status":  order.Status,
			"amounts": order.Amounts,
		})
	}
}

// CreateBankTransferOrder persists a pending_payment order and returns the
// transfer destination alongside the amount breakdown.
func CreateBankTransferOrder(db *mongo.Database, svc *orders.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/bank-transfer"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createBankTransferOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		userID, err := userIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
		if err != nil {
			log.Println("[ORDER] [ERROR] token validation failed:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		order, emailResult, err := svc.CreateBankTransferOrder(c.Request.Context(), orders.CreateBankTransferOrderInput{
			Customer: toCustomerInput(req.Customer),
			Items:    toItemRequests(req.Items),
			UserID:   userID,
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.OrderID,
			"status":      order.Status,
			"amounts":     order.Amounts,
			"bankDetails": svc.Bank(),
			"emailSent":   emailResult.Sent,
		})
	}
}

/* =========================
   BANK REFERENCE SUBMISSION
========================= */

func SubmitBankReference(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/reference"
		defer handlePanic(c, route)

		var req submitReferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		order, _, err := svc.SubmitBankReference(c.Request.Context(), orders.SubmitReferenceInput{
			OrderID:         c.Param("orderId"),
			Reference:       req.Reference,
			SubmittedAmount: req.Amount,
			Notes:           req.Notes,
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId": order.OrderID,
			"status":  order.Status,
			"message": "reference received, payment is awaiting verification",
		})
	}
}

/* =========================
   TRACKING
========================= */

// customerMatchesOrder is the guest ownership check: the supplied email or
// phone must match what the order was created with.
func customerMatchesOrder(order *models.Order, email, phone string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return false
	}
	if email != "" && email == order.Customer.Email {
		return true
	}
	return phone != "" && phone == order.Customer.Phone
}

// TrackOrder looks an order up by id or reference and returns its status,
// amounts, and activity timeline to the owning customer.
func TrackOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/track"
		defer handlePanic(c, route)

		orderID := strings.TrimSpace(c.Query("orderId"))
		reference := strings.TrimSpace(c.Query("reference"))

		var (
			order *models.Order
			err   error
		)
		switch {
		case orderID != "":
			order, err = svc.GetByOrderID(c.Request.Context(), orderID)
		case reference != "":
			order, err = svc.GetByReference(c.Request.Context(), reference, models.PaymentMethodBankTransfer)
			if errors.Is(err, orders.ErrNotFound) {
				order, err = svc.GetByReference(c.Request.Context(), reference, models.PaymentMethodGateway)
			}
		default:
			respondWithError(c, http.StatusBadRequest, route, "orderId or reference is required")
			return
		}
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		if !customerMatchesOrder(order, c.Query("email"), c.Query("phone")) {
			// Same response as a miss so order ids cannot be probed.
			respondLookupFailure(c, http.StatusNotFound, "NotFound", "order not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId":       order.OrderID,
			"status":        order.Status,
			"paymentMethod": order.PaymentMethod,
			"amounts":       order.Amounts,
			"items":         order.Items,
			"timeline":      order.History,
			"createdAt":     order.CreatedAt,
			"updatedAt":     order.UpdatedAt,
		})
	}
}
