package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondOrderError maps engine errors onto the HTTP contract. Customers get
// a stable reason code plus a readable message; internal error text never
// leaks past the 4xx conflict family.
func respondOrderError(c *gin.Context, route string, err error) {
	var vErr orders.ValidationError
	if errors.As(err, &vErr) {
		respondLookupFailure(c, http.StatusBadRequest, "ValidationError", vErr.Msg)
		return
	}

	switch {
	case errors.Is(err, orders.ErrNotFound):
		respondLookupFailure(c, http.StatusNotFound, "NotFound", "order not found")
		return
	case errors.Is(err, orders.ErrAlreadyVerified):
		respondLookupFailure(c, http.StatusConflict, "AlreadyVerified", "this order has already been verified")
		return
	case errors.Is(err, orders.ErrIllegalTransition):
		respondLookupFailure(c, http.StatusConflict, "IllegalStateTransition", "this order cannot be updated from its current status")
		return
	case errors.Is(err, orders.ErrDuplicateReference):
		respondLookupFailure(c, http.StatusConflict, "DuplicateReference", "this reference was already used")
		return
	}

	var stockErr orders.OutOfStockError
	if errors.As(err, &stockErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "product out of stock",
			"code":      "OutOfStock",
			"productId": stockErr.ProductID,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}
	var notFoundErr orders.ProductNotFoundError
	if errors.As(err, &notFoundErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "product not found",
			"code":      "ProductNotFound",
			"productId": notFoundErr.ProductID,
		})
		return
	}

	var failErr orders.VerificationFailedError
	if errors.As(err, &failErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "payment could not be verified",
			"code":  "VerificationFailed",
		})
		return
	}
	var extErr orders.ExternalServiceError
	if errors.As(err, &extErr) {
		log.Printf("[%s] external service failure: %v", route, err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error": "payment service is temporarily unavailable, please retry",
			"code":  "ExternalServiceError",
		})
		return
	}

	log.Printf("[%s] internal error: %v", route, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func respondLookupFailure(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// userIDFromHeader resolves the optional bearer token on checkout routes.
// A missing header means a guest order; a present but invalid token is an
// error.
func userIDFromHeader(header, secret string) (*primitive.ObjectID, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid token format")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || strings.TrimSpace(sub) == "" {
		return nil, errors.New("sub claim missing")
	}

	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return nil, errors.New("invalid user id in token")
	}
	return &userID, nil
}
