package repository

import "context"

type IdempotencyKey struct {
	IdempotencyKey string
	Scope          string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
}

const idempotencyColumns = `idempotency_key, scope, request_hash, method, path, response_status, response_body, content_type, in_progress`

const getIdempotencyKey = `SELECT ` + idempotencyColumns + ` FROM idempotency_keys WHERE scope = $1 AND idempotency_key = $2`

func (q *Queries) GetIdempotencyKey(ctx context.Context, scope, key string) (IdempotencyKey, error) {
	var k IdempotencyKey
	err := q.db.QueryRow(ctx, getIdempotencyKey, scope, key).Scan(
		&k.IdempotencyKey, &k.Scope, &k.RequestHash, &k.Method, &k.Path, &k.ResponseStatus, &k.ResponseBody, &k.ContentType, &k.InProgress,
	)
	return k, err
}

const reserveIdempotencyKey = `
INSERT INTO idempotency_keys (idempotency_key, scope, request_hash, method, path)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (scope, idempotency_key) DO NOTHING
RETURNING idempotency_key
`

type ReserveIdempotencyKeyParams struct {
	IdempotencyKey string
	Scope          string
	RequestHash    string
	Method         string
	Path           string
}

// ReserveIdempotencyKey returns pgx.ErrNoRows when the key is already taken.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, arg ReserveIdempotencyKeyParams) (string, error) {
	var key string
	err := q.db.QueryRow(ctx, reserveIdempotencyKey, arg.IdempotencyKey, arg.Scope, arg.RequestHash, arg.Method, arg.Path).Scan(&key)
	return key, err
}

const finalizeIdempotencyKey = `
UPDATE idempotency_keys
SET response_status = $1, response_body = $2, content_type = $3, in_progress = FALSE, updated_at = NOW()
WHERE scope = $4 AND idempotency_key = $5 AND request_hash = $6
RETURNING ` + idempotencyColumns

type FinalizeIdempotencyKeyParams struct {
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	Scope          string
	IdempotencyKey string
	RequestHash    string
}

func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, arg FinalizeIdempotencyKeyParams) (IdempotencyKey, error) {
	var k IdempotencyKey
	err := q.db.QueryRow(ctx, finalizeIdempotencyKey,
		arg.ResponseStatus, arg.ResponseBody, arg.ContentType, arg.Scope, arg.IdempotencyKey, arg.RequestHash,
	).Scan(
		&k.IdempotencyKey, &k.Scope, &k.RequestHash, &k.Method, &k.Path, &k.ResponseStatus, &k.ResponseBody, &k.ContentType, &k.InProgress,
	)
	return k, err
}

const releaseIdempotencyKey = `DELETE FROM idempotency_keys WHERE scope = $1 AND idempotency_key = $2 AND in_progress`

// ReleaseIdempotencyKey drops an unfinished reservation so the client can retry.
func (q *Queries) ReleaseIdempotencyKey(ctx context.Context, scope, key string) error {
	_, err := q.db.Exec(ctx, releaseIdempotencyKey, scope, key)
	return err
}
