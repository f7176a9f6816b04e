package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
)

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Store(ctx context.Context, token *model.Token) error {
	query := `
		INSERT INTO tokens (id, user_id, token, type, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	token.ID = uuid.New()
	token.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.Type,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (r *tokenRepository) Get(ctx context.Context, token, tokenType string) (*model.Token, error) {
	query := `
		SELECT id, user_id, token, type, expires_at, created_at
		FROM tokens
		WHERE token = $1 AND type = $2 AND expires_at > NOW()
	`
	var t model.Token
	err := r.db.GetContext(ctx, &t, query, token, tokenType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("token", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &t, nil
}

func (r *tokenRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM tokens WHERE token = $1`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

func (r *tokenRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, tokenType string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND type = $2`
	_, err := r.db.ExecContext(ctx, query, userID, tokenType)
	return err
}
