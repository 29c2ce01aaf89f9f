package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"notification-service/internal/entities"
	"time"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id                           BIGINT PRIMARY KEY,
		store_id                     INTEGER NOT NULL DEFAULT 0,
		payment_method_system_name   TEXT NOT NULL DEFAULT '',
		authorization_transaction_id TEXT NOT NULL DEFAULT '',
		capture_transaction_id       TEXT NOT NULL DEFAULT '',
		gateway_order_id             TEXT NOT NULL DEFAULT '',
		payment_status               TEXT NOT NULL,
		order_total                  TEXT NOT NULL DEFAULT '0',
		refunded_amount              TEXT NOT NULL DEFAULT '0',
		has_new_payment_notification BOOLEAN NOT NULL DEFAULT FALSE,
		created_at                   TIMESTAMP NOT NULL,
		updated_at                   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_authorization_idx ON orders (payment_method_system_name, authorization_transaction_id)`,
	`CREATE INDEX IF NOT EXISTS orders_capture_idx ON orders (payment_method_system_name, capture_transaction_id)`,
	`CREATE INDEX IF NOT EXISTS orders_gateway_order_idx ON orders (gateway_order_id)`,
	`CREATE TABLE IF NOT EXISTS order_notes (
		id                  TEXT PRIMARY KEY,
		order_id            BIGINT NOT NULL,
		note                TEXT NOT NULL,
		display_to_customer BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS order_notes_order_idx ON order_notes (order_id)`,
}

const orderColumns = `id, store_id, payment_method_system_name, authorization_transaction_id,
	capture_transaction_id, gateway_order_id, payment_status, order_total, refunded_amount,
	has_new_payment_notification, created_at, updated_at`

// SQLRepository stores orders through database/sql; statements are shared
// between postgres (lib/pq) and sqlite3.
type SQLRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating orders schema: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*entities.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *SQLRepository) FindByAuthorizationID(ctx context.Context, systemName, authorizationID string) (*entities.Order, error) {
	return r.findOne(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE payment_method_system_name = $1 AND authorization_transaction_id = $2
		 ORDER BY id LIMIT 1`,
		systemName, authorizationID)
}

func (r *SQLRepository) FindByCaptureID(ctx context.Context, systemName, captureID string) (*entities.Order, error) {
	return r.findOne(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE payment_method_system_name = $1 AND capture_transaction_id = $2
		 ORDER BY id LIMIT 1`,
		systemName, captureID)
}

func (r *SQLRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*entities.Order, error) {
	return r.findOne(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE gateway_order_id = $1 ORDER BY id LIMIT 1`,
		gatewayOrderID)
}

func (r *SQLRepository) findOne(ctx context.Context, query string, args ...any) (*entities.Order, error) {
	var o entities.Order
	var status string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.StoreID, &o.PaymentMethodSystemName, &o.AuthorizationTransactionID,
		&o.CaptureTransactionID, &o.GatewayOrderID, &status, &o.OrderTotal, &o.RefundedAmount,
		&o.HasNewPaymentNotification, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}
	o.PaymentStatus = entities.PaymentStatus(status)

	notes, err := r.notes(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Notes = notes

	return &o, nil
}

func (r *SQLRepository) notes(ctx context.Context, orderID int64) ([]entities.OrderNote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, note, display_to_customer, created_at FROM order_notes
		 WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order notes: %w", err)
	}
	defer rows.Close()

	var notes []entities.OrderNote
	for rows.Next() {
		var n entities.OrderNote
		if err := rows.Scan(&n.ID, &n.Note, &n.DisplayToCustomer, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Save upserts the order row and inserts notes that are not stored yet.
func (r *SQLRepository) Save(ctx context.Context, order *entities.Order) error {
	now := r.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.PaymentStatus == "" {
		order.PaymentStatus = entities.PaymentStatusPending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
			store_id = excluded.store_id,
			payment_method_system_name = excluded.payment_method_system_name,
			authorization_transaction_id = excluded.authorization_transaction_id,
			capture_transaction_id = excluded.capture_transaction_id,
			gateway_order_id = excluded.gateway_order_id,
			payment_status = excluded.payment_status,
			order_total = excluded.order_total,
			refunded_amount = excluded.refunded_amount,
			has_new_payment_notification = excluded.has_new_payment_notification,
			updated_at = excluded.updated_at`,
		order.ID, order.StoreID, order.PaymentMethodSystemName, order.AuthorizationTransactionID,
		order.CaptureTransactionID, order.GatewayOrderID, string(order.PaymentStatus),
		order.OrderTotal.String(), order.RefundedAmount.String(),
		order.HasNewPaymentNotification, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert order %d: %w", order.ID, err)
	}

	for _, n := range order.Notes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_notes (id, order_id, note, display_to_customer, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			n.ID.String(), order.ID, n.Note, n.DisplayToCustomer, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert note for order %d: %w", order.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
