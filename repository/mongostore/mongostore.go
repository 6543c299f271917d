// Package mongostore persists users, fish and orders as MongoDB documents.
package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
	"mach-lagbe/repository"
)

const (
	UsersCollection  = "users"
	FishCollection   = "fish"
	OrdersCollection = "orders"
)

type MongoDB struct {
	Client     *mongo.Client
	UsersColl  *mongo.Collection
	FishColl   *mongo.Collection
	OrdersColl *mongo.Collection
}

var _ repository.Store = (*MongoDB)(nil)

func New(client *mongo.Client, database string) *MongoDB {
	db := client.Database(database)
	return &MongoDB{
		Client:     client,
		UsersColl:  db.Collection(UsersCollection),
		FishColl:   db.Collection(FishCollection),
		OrdersColl: db.Collection(OrdersCollection),
	}
}

func (m *MongoDB) Users() repository.IUserRepository   { return userRepo{m.UsersColl} }
func (m *MongoDB) Fish() repository.IFishRepository    { return fishRepo{m.FishColl} }
func (m *MongoDB) Orders() repository.IOrderRepository { return orderRepo{m.OrdersColl} }

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return apperrors.ErrDuplicateKey
	default:
		return err
	}
}

type userRepo struct{ c *mongo.Collection }

func (r userRepo) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	_, err := r.c.InsertOne(ctx, user)
	return mapErr(err)
}

func (r userRepo) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r userRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.c.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r userRepo) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = now()
	update := bson.M{"$set": bson.M{
		"name":      user.Name,
		"phone":     user.Phone,
		"address":   user.Address,
		"avatar":    user.Avatar,
		"role":      user.Role,
		"updatedAt": user.UpdatedAt,
	}}
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type fishRepo struct{ c *mongo.Collection }

func (r fishRepo) CreateFish(ctx context.Context, fish *models.Fish) error {
	if fish.ID.IsZero() {
		fish.ID = primitive.NewObjectID()
	}
	fish.CreatedAt = now()
	fish.UpdatedAt = fish.CreatedAt
	_, err := r.c.InsertOne(ctx, fish)
	return mapErr(err)
}

func (r fishRepo) FindFishByID(ctx context.Context, id primitive.ObjectID) (*models.Fish, error) {
	var f models.Fish
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, mapErr(err)
	}
	return &f, nil
}

// FishQuery builds the MongoDB filter for a catalog listing.
func FishQuery(filter models.FishFilter) bson.M {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["isActive"] = true
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Availability != "" {
		query["availability"] = filter.Availability
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return query
}

func (r fishRepo) ListFish(ctx context.Context, filter models.FishFilter) ([]*models.Fish, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.c.Find(ctx, FishQuery(filter), opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)
	fish := make([]*models.Fish, 0)
	if err := cur.All(ctx, &fish); err != nil {
		return nil, err
	}
	return fish, nil
}

func (r fishRepo) UpdateFish(ctx context.Context, fish *models.Fish) error {
	fish.UpdatedAt = now()
	update := bson.M{"$set": bson.M{
		"name":         fish.Name,
		"description":  fish.Description,
		"pricePerKg":   fish.PricePerKg,
		"category":     fish.Category,
		"availability": fish.Availability,
		"stock":        fish.Stock,
		"imageUrl":     fish.ImageURL,
		"isActive":     fish.IsActive,
		"updatedAt":    fish.UpdatedAt,
	}}
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": fish.ID}, update)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type orderRepo struct{ c *mongo.Collection }

// OrderQuery builds the MongoDB filter for order scoping.
func OrderQuery(filter models.OrderFilter) bson.M {
	if filter.UserID == nil {
		return bson.M{}
	}
	return bson.M{"user.id": *filter.UserID}
}

func (r orderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = now()
	order.UpdatedAt = order.CreatedAt
	_, err := r.c.InsertOne(ctx, order)
	return mapErr(err)
}

func (r orderRepo) FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r orderRepo) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.c.Find(ctx, OrderQuery(filter), opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)
	orders := make([]*models.Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r orderRepo) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	if err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&o); err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r orderRepo) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r orderRepo) DeleteOrders(ctx context.Context, filter models.OrderFilter) (int64, error) {
	res, err := r.c.DeleteMany(ctx, OrderQuery(filter))
	if err != nil {
		return 0, mapErr(err)
	}
	return res.DeletedCount, nil
}
