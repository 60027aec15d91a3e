package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().
			SetName("orderId_unique").
			SetUnique(true),
	}

	// Storage-level backstop for the duplicate-reference guard: one
	// reference maps to at most one order per payment method.
	referenceIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "transactionReference", Value: 1},
			{Key: "paymentMethod", Value: 1},
		},
		Options: options.Index().
			SetName("transactionReference_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"transactionReference": bson.M{"$type": "string"},
			}),
	}

	customerEmailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "customer.email", Value: 1}},
		Options: options.Index().SetName("customer_email_index"),
	}

	log.Println("EnsureOrderIndexes: creating order indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{orderIDIndex, referenceIndex, customerEmailIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: order index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: order indexes created")
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	log.Println("EnsureUserIndexes: email_unique index created")
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	skuIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "sku", Value: 1}},
		Options: options.Index().
			SetName("sku_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"sku": bson.M{"$exists": true},
			}),
	}

	log.Println("EnsureProductIndexes: creating sku_unique index")
	_, err := indexes.CreateOne(ctx, skuIndex)
	if err != nil {
		log.Println("EnsureProductIndexes: sku index error:", err)
		return err
	}
	log.Println("EnsureProductIndexes: sku_unique index created")
	return nil
}
