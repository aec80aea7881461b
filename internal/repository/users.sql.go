package repository

import (
	"context"

	"github.com/freelancehub/wallet-ledger/internal/models"
)

const createUser = `INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`

func (q *Queries) CreateUser(ctx context.Context, name, email, role string) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, createUser, name, email, role).Scan(&id)
	return id, err
}

const getUser = `SELECT id, name, email, role FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := q.db.QueryRow(ctx, getUser, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role)
	return u, err
}

const listAdminEmails = `SELECT email FROM users WHERE role = 'admin' ORDER BY id`

func (q *Queries) ListAdminEmails(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listAdminEmails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
