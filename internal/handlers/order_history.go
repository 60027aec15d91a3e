package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Code-minner/symbolStores-sub001/internal/store"
)

// OrderHistory returns a customer's orders by email. Email is the durable
// identity key for guest purchases, so guests and account holders use the
// same lookup.
func OrderHistory(st *store.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/history"
		defer handlePanic(c, route)

		email := strings.ToLower(strings.TrimSpace(c.Query("email")))
		if email == "" {
			respondWithError(c, http.StatusBadRequest, route, "email is required")
			return
		}

		result, err := st.FindByCustomerEmail(c.Request.Context(), email)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": result})
	}
}
