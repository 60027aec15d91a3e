package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

// VerifyGatewayPayment is the storefront's return leg from hosted checkout:
// it hands the gateway transaction id to the verification engine, which
// decides whether the order is confirmed or failed.
func VerifyGatewayPayment(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payments/verify"
		defer handlePanic(c, route)

		transactionID := c.Query("transaction_id")
		txRef := c.Query("tx_ref")

		order, _, err := svc.VerifyGatewayPayment(c.Request.Context(), transactionID, txRef)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId":       order.OrderID,
			"status":        order.Status,
			"transactionId": order.GatewayTransactionID,
			"amount":        order.Amounts.FinalTotal,
			"currency":      order.Amounts.Currency,
		})
	}
}
