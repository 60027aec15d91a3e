package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
)

// GetProducts lists active products with optional category/search filters
// and optional pagination.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		filter := bson.M{
			"isActive":  bson.M{"$ne": false},
			"isDeleted": bson.M{"$ne": true},
		}
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": search, "$options": "i"}
		}

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		if c.Query("page") != "" || c.Query("limit") != "" {
			page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination")
				return
			}
			findOptions.SetSkip((page - 1) * limit).SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := []models.Product{}
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}
