// Package mysqlstore persists users, fish and orders in MySQL. Order items and
// the user snapshot stay embedded in the order row so order history never
// joins against the live catalog.
package mysqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
	"mach-lagbe/repository"
)

const errDuplicateEntry = 1062

type Store struct {
	DB *sqlx.DB
}

var _ repository.Store = (*Store)(nil)

func New(db *sqlx.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Users() repository.IUserRepository   { return userRepo{s.DB} }
func (s *Store) Fish() repository.IFishRepository    { return fishRepo{s.DB} }
func (s *Store) Orders() repository.IOrderRepository { return orderRepo{s.DB} }

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close(context.Context) error { return s.DB.Close() }

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return apperrors.ErrDuplicateKey
	}
	return err
}

func parseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("corrupt id %q: %w", s, err)
	}
	return id, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	Role      string    `db:"role"`
	Avatar    string    `db:"avatar"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r userRow) model() (*models.User, error) {
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:           id,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.Password,
		Phone:        r.Phone,
		Address:      r.Address,
		Role:         models.Role(r.Role),
		Avatar:       r.Avatar,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

const userColumns = "id, name, email, password, phone, address, role, avatar, created_at, updated_at"

type userRepo struct{ db *sqlx.DB }

func (r userRepo) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID.Hex(), user.Name, user.Email, user.PasswordHash, user.Phone, user.Address,
		string(user.Role), user.Avatar, user.CreatedAt, user.UpdatedAt,
	)
	return mapErr(err)
}

func (r userRepo) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+where, arg); err != nil {
		return nil, mapErr(err)
	}
	return row.model()
}

func (r userRepo) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id.Hex())
}

func (r userRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r userRepo) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET name = ?, phone = ?, address = ?, avatar = ?, role = ?, updated_at = ? WHERE id = ?",
		user.Name, user.Phone, user.Address, user.Avatar, string(user.Role), user.UpdatedAt, user.ID.Hex(),
	)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

type fishRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	PricePerKg   float64   `db:"price_per_kg"`
	Category     string    `db:"category"`
	Availability string    `db:"availability"`
	Stock        int       `db:"stock"`
	ImageURL     string    `db:"image_url"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r fishRow) model() (*models.Fish, error) {
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}
	return &models.Fish{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		PricePerKg:   r.PricePerKg,
		Category:     models.FishCategory(r.Category),
		Availability: models.Availability(r.Availability),
		Stock:        r.Stock,
		ImageURL:     r.ImageURL,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

const fishColumns = "id, name, description, price_per_kg, category, availability, stock, image_url, is_active, created_at, updated_at"

type fishRepo struct{ db *sqlx.DB }

func (r fishRepo) CreateFish(ctx context.Context, fish *models.Fish) error {
	if fish.ID.IsZero() {
		fish.ID = primitive.NewObjectID()
	}
	fish.CreatedAt = now()
	fish.UpdatedAt = fish.CreatedAt
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO fish ("+fishColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		fish.ID.Hex(), fish.Name, fish.Description, fish.PricePerKg, string(fish.Category),
		string(fish.Availability), fish.Stock, fish.ImageURL, fish.IsActive, fish.CreatedAt, fish.UpdatedAt,
	)
	return mapErr(err)
}

func (r fishRepo) FindFishByID(ctx context.Context, id primitive.ObjectID) (*models.Fish, error) {
	var row fishRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+fishColumns+" FROM fish WHERE id = ?", id.Hex()); err != nil {
		return nil, mapErr(err)
	}
	return row.model()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FishQuery builds the WHERE clause and arguments for a catalog listing.
func FishQuery(filter models.FishFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if !filter.IncludeInactive {
		conds = append(conds, "is_active = ?")
		args = append(args, true)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Availability != "" {
		conds = append(conds, "availability = ?")
		args = append(args, string(filter.Availability))
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r fishRepo) ListFish(ctx context.Context, filter models.FishFilter) ([]*models.Fish, error) {
	where, args := FishQuery(filter)
	var rows []fishRow
	query := "SELECT " + fishColumns + " FROM fish" + where + " ORDER BY created_at DESC, id DESC"
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapErr(err)
	}
	fish := make([]*models.Fish, 0, len(rows))
	for _, row := range rows {
		f, err := row.model()
		if err != nil {
			return nil, err
		}
		fish = append(fish, f)
	}
	return fish, nil
}

func (r fishRepo) UpdateFish(ctx context.Context, fish *models.Fish) error {
	fish.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE fish SET name = ?, description = ?, price_per_kg = ?, category = ?, availability = ?,
		stock = ?, image_url = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		fish.Name, fish.Description, fish.PricePerKg, string(fish.Category), string(fish.Availability),
		fish.Stock, fish.ImageURL, fish.IsActive, fish.UpdatedAt, fish.ID.Hex(),
	)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

type orderRow struct {
	ID        string    `db:"id"`
	Items     []byte    `db:"items"`
	Total     float64   `db:"total"`
	UserID    string    `db:"user_id"`
	UserName  string    `db:"user_name"`
	UserEmail string    `db:"user_email"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r orderRow) model() (*models.Order, error) {
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(r.UserID)
	if err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := json.Unmarshal(r.Items, &items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", r.ID, err)
	}
	return &models.Order{
		ID:        id,
		Items:     items,
		Total:     r.Total,
		User:      models.UserSnapshot{ID: userID, Name: r.UserName, Email: r.UserEmail},
		Status:    models.OrderStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

const orderColumns = "id, items, total, user_id, user_name, user_email, status, created_at, updated_at"

type orderRepo struct{ db *sqlx.DB }

func orderWhere(filter models.OrderFilter) (string, []interface{}) {
	if filter.UserID == nil {
		return "", nil
	}
	return " WHERE user_id = ?", []interface{}{filter.UserID.Hex()}
}

func (r orderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = now()
	order.UpdatedAt = order.CreatedAt
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		order.ID.Hex(), items, order.Total, order.User.ID.Hex(), order.User.Name, order.User.Email,
		string(order.Status), order.CreatedAt, order.UpdatedAt,
	)
	return mapErr(err)
}

func (r orderRepo) FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id.Hex()); err != nil {
		return nil, mapErr(err)
	}
	return row.model()
}

func (r orderRepo) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	where, args := orderWhere(filter)
	var rows []orderRow
	query := "SELECT " + orderColumns + " FROM orders" + where + " ORDER BY created_at DESC, id DESC"
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapErr(err)
	}
	orders := make([]*models.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r orderRepo) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	// RowsAffected is 0 for unchanged rows in MySQL; the read reports missing orders.
	if _, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?",
		string(status), now(), id.Hex(),
	); err != nil {
		return nil, mapErr(err)
	}
	return r.FindOrderByID(ctx, id)
}

func (r orderRepo) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id.Hex())
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

func (r orderRepo) DeleteOrders(ctx context.Context, filter models.OrderFilter) (int64, error) {
	where, args := orderWhere(filter)
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders"+where, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}
