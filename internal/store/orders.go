// Package store implements the order persistence surface over MongoDB.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

const opTimeout = 5 * time.Second

// Orders is the Mongo-backed implementation of orders.Store.
type Orders struct {
	db *mongo.Database
}

func NewOrders(db *mongo.Database) *Orders {
	return &Orders{db: db}
}

func (s *Orders) collection() *mongo.Collection {
	return s.db.Collection("orders")
}

func (s *Orders) Insert(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.collection().InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", order.OrderID, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *Orders) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var order models.Order
	err := s.collection().FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding order %s: %w", orderID, err)
	}
	return &order, nil
}

func (s *Orders) FindByReference(ctx context.Context, reference, paymentMethod string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var order models.Order
	err := s.collection().FindOne(ctx, bson.M{
		"transactionReference": reference,
		"paymentMethod":        paymentMethod,
	}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding order by reference: %w", err)
	}
	return &order, nil
}

// Transition is the compare-and-swap at the heart of the state machine: the
// status check and the write are one conditional UpdateOne, so of two racing
// requests only one can match.
func (s *Orders) Transition(ctx context.Context, t orders.Transition) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{
		"status":    t.To,
		"updatedAt": t.Event.At,
	}
	for k, v := range t.Set {
		set[k] = v
	}

	res, err := s.collection().UpdateOne(ctx,
		bson.M{
			"orderId":         t.OrderID,
			"status":          bson.M{"$in": t.From},
			"paymentVerified": false,
		},
		bson.M{
			"$set":  set,
			"$push": bson.M{"history": t.Event},
		},
	)
	if err != nil {
		return fmt.Errorf("transitioning order %s to %s: %w", t.OrderID, t.To, err)
	}
	if res.MatchedCount == 0 {
		return orders.ErrConflict
	}
	return nil
}

// ReserveItems prices each requested line from the products collection and
// decrements its stock, all inside one session transaction so a later line
// failing rolls back the earlier decrements. Unit prices come from the
// catalog, never from the client.
func (s *Orders) ReserveItems(ctx context.Context, items []orders.ItemRequest) ([]models.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	session, err := s.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	products := s.db.Collection("products")
	var reserved []models.OrderItem

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		reserved = reserved[:0]
		for _, item := range items {
			productID, err := primitive.ObjectIDFromHex(item.ProductID)
			if err != nil {
				return nil, orders.ValidationError{Msg: "invalid productId"}
			}

			var product models.Product
			err = products.FindOne(sessCtx, bson.M{
				"_id":       productID,
				"isDeleted": bson.M{"$ne": true},
			}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				return nil, orders.ProductNotFoundError{ProductID: item.ProductID}
			}
			if err != nil {
				return nil, err
			}

			if product.Stock < item.Quantity {
				return nil, orders.OutOfStockError{
					ProductID: item.ProductID,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}

			res, err := products.UpdateOne(sessCtx,
				bson.M{
					"_id":       productID,
					"isDeleted": bson.M{"$ne": true},
					"stock":     bson.M{"$gte": item.Quantity},
				},
				bson.M{"$inc": bson.M{"stock": -item.Quantity}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, orders.OutOfStockError{
					ProductID: item.ProductID,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}

			reserved = append(reserved, models.OrderItem{
				ProductID:  productID,
				Name:       product.Name,
				SKU:        product.SKU,
				UnitAmount: product.EffectivePrice(),
				Quantity:   item.Quantity,
				ImagePath:  product.ImagePath,
			})
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

// ReleaseStock returns reserved quantities to the catalog after a terminal
// failure. Per-product $inc; an order's lines are independent.
func (s *Orders) ReleaseStock(ctx context.Context, items []models.OrderItem) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	products := s.db.Collection("products")
	var firstErr error
	for _, item := range items {
		_, err := products.UpdateOne(ctx,
			bson.M{"_id": item.ProductID},
			bson.M{"$inc": bson.M{"stock": item.Quantity}},
		)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("releasing stock for product %s: %w", item.ProductID.Hex(), err)
		}
	}
	return firstErr
}

func (s *Orders) FindStale(ctx context.Context, statuses []string, before time.Time) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.collection().Find(ctx, bson.M{
		"status":    bson.M{"$in": statuses},
		"createdAt": bson.M{"$lt": before},
	})
	if err != nil {
		return nil, fmt.Errorf("finding stale orders: %w", err)
	}
	defer cursor.Close(ctx)

	var stale []models.Order
	if err := cursor.All(ctx, &stale); err != nil {
		return nil, fmt.Errorf("decoding stale orders: %w", err)
	}
	return stale, nil
}

// ListOrders returns a filtered, paginated page of orders for the admin
// view, newest first.
func (s *Orders) ListOrders(ctx context.Context, status string, page, limit int64) ([]models.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := s.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	opts := listOptions(page, limit)
	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	defer cursor.Close(ctx)

	result := []models.Order{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("decoding orders: %w", err)
	}
	return result, total, nil
}

// FindByCustomerEmail returns a guest customer's order history, newest first.
func (s *Orders) FindByCustomerEmail(ctx context.Context, email string) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.collection().Find(ctx, bson.M{"customer.email": email}, listOptions(1, 50))
	if err != nil {
		return nil, fmt.Errorf("finding orders for %s: %w", email, err)
	}
	defer cursor.Close(ctx)

	result := []models.Order{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decoding orders: %w", err)
	}
	return result, nil
}

func listOptions(page, limit int64) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
}
