package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Code-minner/symbolStores-sub001/internal/orders"
	"github.com/Code-minner/symbolStores-sub001/internal/store"
)

type adjudicateRequest struct {
	Action string `json:"action" binding:"required"`
	Notes  string `json:"notes"`
}

// AdjudicateOrder applies an admin approve/reject decision to a parked
// bank-transfer order. The acting admin's email from the token becomes
// verifiedBy.
func AdjudicateOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/orders/:orderId/adjudicate"
		defer handlePanic(c, route)

		var req adjudicateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		verifiedBy := c.GetString("adminEmail")

		order, emails, err := svc.Adjudicate(c.Request.Context(), orders.AdjudicateInput{
			OrderID:    c.Param("orderId"),
			Action:     strings.ToLower(strings.TrimSpace(req.Action)),
			Notes:      req.Notes,
			VerifiedBy: verifiedBy,
		})
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId":         order.OrderID,
			"newStatus":       order.Status,
			"paymentVerified": order.PaymentVerified,
			"verification":    order.Verification,
			"emailResults":    emails,
		})
	}
}

// ListOrders returns a filtered, paginated admin view, newest first.
func ListOrders(st *store.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination")
			return
		}

		result, total, err := st.ListOrders(c.Request.Context(), strings.TrimSpace(c.Query("status")), page, limit)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": result,
			"total":  total,
			"page":   page,
			"limit":  limit,
		})
	}
}

// GetOrder returns the full order document, diagnostics included. Admin
// only; customers use the tracking endpoint.
func GetOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:orderId"
		defer handlePanic(c, route)

		order, err := svc.GetByOrderID(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
