package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "github.com/lib/pq"
	"github.com/xaenox/return-analyzer/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// SQLStorage implements Storage on PostgreSQL or SQLite. Queries use $N
// placeholders, which both drivers accept.
type SQLStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*SQLStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return newSQLStorage(db, logger)
}

// NewSQLiteStorage opens a SQLite database file; ":memory:" is allowed.
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// every sqlite connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	return newSQLStorage(db, logger)
}

func newSQLStorage(db *sql.DB, logger *zap.Logger) (*SQLStorage, error) {
	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &SQLStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *SQLStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *SQLStorage) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	query := `
		SELECT page, selected, updated_at
		FROM sessions
		WHERE user_id = $1`

	var (
		page      string
		selected  sql.NullInt64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&page, &selected, &updatedAt)
	if err == sql.ErrNoRows {
		return models.NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying session: %w", err)
	}

	session := &models.Session{
		UserID:    userID,
		Page:      models.Page(page),
		UpdatedAt: time.UnixMilli(updatedAt),
	}
	if selected.Valid {
		idx := int(selected.Int64)
		session.Selected = &idx
	}
	return session, nil
}

func (s *SQLStorage) SaveSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, page, selected, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET page = excluded.page, selected = excluded.selected, updated_at = excluded.updated_at`

	var selected sql.NullInt64
	if session.Selected != nil {
		selected = sql.NullInt64{Int64: int64(*session.Selected), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		session.UserID,
		string(session.Page),
		selected,
		session.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

func (s *SQLStorage) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	query := `
		INSERT INTO analyses (id, user_id, product, reason, normalized, label, probabilities, action, color, review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	product, err := marshalNullable(a.Product)
	if err != nil {
		return fmt.Errorf("error encoding product: %w", err)
	}
	review, err := marshalNullable(a.Review)
	if err != nil {
		return fmt.Errorf("error encoding review: %w", err)
	}
	probs, err := json.Marshal(a.Prediction.Probabilities)
	if err != nil {
		return fmt.Errorf("error encoding probabilities: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		product,
		a.Reason,
		a.Normalized,
		a.Prediction.Label,
		string(probs),
		a.Resolution.Action,
		a.Resolution.Color,
		review,
		a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error saving analysis: %w", err)
	}
	return nil
}

func (s *SQLStorage) GetUserAnalyses(ctx context.Context, userID int64, limit, offset int) ([]*models.Analysis, error) {
	query := `
		SELECT id, user_id, product, reason, normalized, label, probabilities, action, color, review, created_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying analyses: %w", err)
	}
	defer rows.Close()

	analyses := []*models.Analysis{}
	for rows.Next() {
		var (
			a               models.Analysis
			product, review sql.NullString
			probs           string
			createdAt       int64
		)
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&product,
			&a.Reason,
			&a.Normalized,
			&a.Prediction.Label,
			&probs,
			&a.Resolution.Action,
			&a.Resolution.Color,
			&review,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(probs), &a.Prediction.Probabilities); err != nil {
			return nil, fmt.Errorf("error decoding probabilities for %s: %w", a.ID, err)
		}
		if product.Valid {
			a.Product = &models.Product{}
			if err := json.Unmarshal([]byte(product.String), a.Product); err != nil {
				return nil, fmt.Errorf("error decoding product for %s: %w", a.ID, err)
			}
		}
		if review.Valid {
			a.Review = &models.Review{}
			if err := json.Unmarshal([]byte(review.String), a.Review); err != nil {
				s.logger.Warn("Dropping unreadable review", zap.Error(err), zap.String("analysis_id", a.ID))
				a.Review = nil
			}
		}
		a.CreatedAt = time.UnixMilli(createdAt)
		analyses = append(analyses, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return analyses, nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
