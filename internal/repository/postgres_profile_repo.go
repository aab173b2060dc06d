package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/confhub/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID は指定ユーザーIDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, main_email, tee_shirt_size, conference_keys_to_attend, created_at, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(
		&profile.UserID, &profile.DisplayName, &profile.MainEmail, &profile.TeeShirtSize,
		pq.Array(&profile.ConferenceKeysToAttend), &profile.CreatedAt, &profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}

	return profile, nil
}

// FindByIDs は複数ユーザーIDのプロフィールを一括取得する。
// 見つかったものだけをユーザーIDをキーとするマップで返す。
func (r *PostgresProfileRepo) FindByIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	profiles := make(map[string]*model.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, display_name, main_email, tee_shirt_size, conference_keys_to_attend, created_at, updated_at
		 FROM profiles WHERE user_id = ANY($1)`,
		pq.Array(userIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		profile := &model.Profile{}
		if err := rows.Scan(
			&profile.UserID, &profile.DisplayName, &profile.MainEmail, &profile.TeeShirtSize,
			pq.Array(&profile.ConferenceKeysToAttend), &profile.CreatedAt, &profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles[profile.UserID] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// Create はプロフィールを作成する。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name, main_email, tee_shirt_size, conference_keys_to_attend, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.UserID, profile.DisplayName, profile.MainEmail, string(profile.TeeShirtSize),
		pq.Array(profile.ConferenceKeysToAttend), profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// Update はプロフィールを更新する。main_emailは作成後不変のため対象外。
func (r *PostgresProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET display_name = $2, tee_shirt_size = $3, conference_keys_to_attend = $4, updated_at = $5
		 WHERE user_id = $1`,
		profile.UserID, profile.DisplayName, string(profile.TeeShirtSize),
		pq.Array(profile.ConferenceKeysToAttend), profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
