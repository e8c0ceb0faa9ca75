package inquiry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dealer-support-chat/internal/model"
)

const inquiryColumns = `id, customer_key, session_token, customer_name, customer_email, customer_phone,
	status, assigned_to, priority, customer_message, message_count, last_message_at, created_at, updated_at`

const messageColumns = `id, inquiry_id, sender, body, created_at`

// SQLRepository stores inquiries in Postgres or SQLite through sqlx.
type SQLRepository struct {
	db *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) CreateInquiry(ctx context.Context, inquiry model.InquiryItem, seed model.MessageItem) error {
	last := seed.CreatedAt
	inquiry.MessageCount = 1
	inquiry.LastMessageAt = &last

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO inquiries (`+inquiryColumns+`)
			VALUES (:id, :customer_key, :session_token, :customer_name, :customer_email, :customer_phone,
				:status, :assigned_to, :priority, :customer_message, :message_count, :last_message_at, :created_at, :updated_at)`,
			inquiry)
		if err != nil {
			return fmt.Errorf("insert inquiry: %w", err)
		}
		return insertMessage(ctx, tx, seed)
	})
}

func (r *SQLRepository) GetInquiry(ctx context.Context, id string) (model.InquiryItem, error) {
	var inquiry model.InquiryItem
	err := r.db.GetContext(ctx, &inquiry, r.db.Rebind(`SELECT `+inquiryColumns+` FROM inquiries WHERE id = ?`), id)
	if err != nil {
		return model.InquiryItem{}, notFoundOr(err, "get inquiry")
	}
	return inquiry, nil
}

func (r *SQLRepository) FindLatestByCustomerKey(ctx context.Context, customerKey string) (model.InquiryItem, error) {
	var inquiry model.InquiryItem
	err := r.db.GetContext(ctx, &inquiry, r.db.Rebind(`SELECT `+inquiryColumns+` FROM inquiries
		WHERE customer_key = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`), customerKey)
	if err != nil {
		return model.InquiryItem{}, notFoundOr(err, "find inquiry by customer key")
	}
	return inquiry, nil
}

func (r *SQLRepository) FindLatestBySession(ctx context.Context, sessionToken, customerKey string) (model.InquiryItem, error) {
	var inquiry model.InquiryItem
	err := r.db.GetContext(ctx, &inquiry, r.db.Rebind(`SELECT `+inquiryColumns+` FROM inquiries
		WHERE session_token = ? AND customer_key = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`), sessionToken, customerKey)
	if err != nil {
		return model.InquiryItem{}, notFoundOr(err, "find inquiry by session")
	}
	return inquiry, nil
}

func (r *SQLRepository) ListInquiries(ctx context.Context) ([]model.InquiryItem, error) {
	inquiries := []model.InquiryItem{}
	err := r.db.SelectContext(ctx, &inquiries, `SELECT `+inquiryColumns+` FROM inquiries
		ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, nil
}

func (r *SQLRepository) ListInquiriesByCustomerKey(ctx context.Context, customerKey string) ([]model.InquiryItem, error) {
	inquiries := []model.InquiryItem{}
	err := r.db.SelectContext(ctx, &inquiries, r.db.Rebind(`SELECT `+inquiryColumns+` FROM inquiries
		WHERE customer_key = ?
		ORDER BY updated_at DESC, id DESC`), customerKey)
	if err != nil {
		return nil, fmt.Errorf("list inquiries by customer key: %w", err)
	}
	return inquiries, nil
}

func (r *SQLRepository) UpdateContact(ctx context.Context, id string, contact model.Contact, updatedAt time.Time) error {
	return r.execOne(ctx, "update contact", `UPDATE inquiries SET
			customer_name = COALESCE(NULLIF(?, ''), customer_name),
			customer_email = COALESCE(NULLIF(?, ''), customer_email),
			customer_phone = COALESCE(NULLIF(?, ''), customer_phone),
			updated_at = ?
		WHERE id = ?`,
		contact.Name, contact.Email, contact.Phone, updatedAt, id)
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id string, status model.InquiryStatus, updatedAt time.Time) error {
	return r.execOne(ctx, "update status", `UPDATE inquiries SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), updatedAt, id)
}

func (r *SQLRepository) UpdateAssignment(ctx context.Context, id string, agent *string, updatedAt time.Time) error {
	return r.execOne(ctx, "update assignment", `UPDATE inquiries SET assigned_to = ?, updated_at = ? WHERE id = ?`,
		agent, updatedAt, id)
}

func (r *SQLRepository) DeleteInquiry(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM inquiry_messages WHERE inquiry_id = ?`), id); err != nil {
			return fmt.Errorf("delete inquiry messages: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM inquiries WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete inquiry: %w", err)
		}
		return requireRow(res)
	})
}

func (r *SQLRepository) AppendMessage(ctx context.Context, msg model.MessageItem) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE inquiries SET
				message_count = message_count + 1,
				last_message_at = ?,
				updated_at = ?
			WHERE id = ?`), msg.CreatedAt, msg.CreatedAt, msg.InquiryID)
		if err != nil {
			return fmt.Errorf("touch inquiry: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return insertMessage(ctx, tx, msg)
	})
}

func (r *SQLRepository) GetMessage(ctx context.Context, id string) (model.MessageItem, error) {
	var msg model.MessageItem
	err := r.db.GetContext(ctx, &msg, r.db.Rebind(`SELECT `+messageColumns+` FROM inquiry_messages WHERE id = ?`), id)
	if err != nil {
		return model.MessageItem{}, notFoundOr(err, "get message")
	}
	return msg, nil
}

func (r *SQLRepository) ListMessages(ctx context.Context, inquiryID string) ([]model.MessageItem, error) {
	messages := []model.MessageItem{}
	err := r.db.SelectContext(ctx, &messages, r.db.Rebind(`SELECT `+messageColumns+` FROM inquiry_messages
		WHERE inquiry_id = ?
		ORDER BY created_at ASC, id ASC`), inquiryID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (r *SQLRepository) DeleteMessage(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var inquiryID string
		err := tx.GetContext(ctx, &inquiryID, tx.Rebind(`SELECT inquiry_id FROM inquiry_messages WHERE id = ?`), id)
		if err != nil {
			return notFoundOr(err, "get message")
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM inquiry_messages WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete message: %w", err)
		}

		var latest []time.Time
		err = tx.SelectContext(ctx, &latest, tx.Rebind(`SELECT created_at FROM inquiry_messages
			WHERE inquiry_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1`), inquiryID)
		if err != nil {
			return fmt.Errorf("latest message: %w", err)
		}

		var last *time.Time
		if len(latest) > 0 {
			last = &latest[0]
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE inquiries SET
				message_count = (SELECT COUNT(*) FROM inquiry_messages WHERE inquiry_id = ?),
				last_message_at = ?
			WHERE id = ?`), inquiryID, last, inquiryID)
		if err != nil {
			return fmt.Errorf("recount messages: %w", err)
		}
		return nil
	})
}

func insertMessage(ctx context.Context, tx *sqlx.Tx, msg model.MessageItem) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO inquiry_messages (`+messageColumns+`)
		VALUES (:id, :inquiry_id, :sender, :body, :created_at)`, msg)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *SQLRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRow(res)
}

func (r *SQLRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
