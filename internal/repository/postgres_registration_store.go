package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/confhub/internal/model"
)

// maxTxAttempts は直列化競合時のトランザクション試行回数の上限。
const maxTxAttempts = 3

// PostgresRegistrationStore は登録エンジンのトランザクション境界を
// SERIALIZABLE分離レベルのPostgreSQLトランザクションとして提供する。
// 書き込み競合（SQLSTATE 40001/40P01）は試行ごとに新鮮な状態を
// 読み直して自動リトライし、上限到達時のみエラーを表面化する。
type PostgresRegistrationStore struct {
	db      *sql.DB
	metrics TxRetryRecorder
}

// NewPostgresRegistrationStore はPostgresRegistrationStoreを生成する。
// metricsはnilでもよい。
func NewPostgresRegistrationStore(db *sql.DB, metrics TxRetryRecorder) *PostgresRegistrationStore {
	return &PostgresRegistrationStore{db: db, metrics: metrics}
}

// RunInTx はfnをSERIALIZABLEトランザクション内で実行する。
// fnがAPIError（業務エラー）を返した場合はロールバックしてそのまま返す。
// 直列化競合はmaxTxAttempts回までリトライし、使い切った場合は
// TX_RETRY_EXHAUSTEDを返す。
func (s *PostgresRegistrationStore) RunInTx(ctx context.Context, fn func(tx RegistrationTx) error) error {
	var lastErr error

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}

		// 業務エラーはリトライ対象外
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return err
		}

		if !isSerializationFailure(err) {
			return err
		}

		lastErr = err
		if s.metrics != nil {
			s.metrics.RecordTxRetry()
		}
		slog.Warn("registration tx serialization conflict, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}

	slog.Error("registration tx retries exhausted",
		slog.Int("attempts", maxTxAttempts),
		slog.String("error", lastErr.Error()),
	)
	return model.NewTxRetryExhaustedError()
}

// runOnce は1回分のトランザクション試行を実行する。
func (s *PostgresRegistrationStore) runOnce(ctx context.Context, fn func(tx RegistrationTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgRegistrationTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isSerializationFailure は直列化競合（リトライ可能）エラーかどうかを判定する。
/// 40001: serialization_failure、40P01: deadlock_detected。
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// pgRegistrationTx はRegistrationTxの*sql.Tx実装。
type pgRegistrationTx struct {
	tx *sql.Tx
}

// FindProfile は指定ユーザーIDのプロフィールをトランザクション内で取得する。
func (t *pgRegistrationTx) FindProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := t.tx.QueryRowContext(ctx,
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
		return nil, fmt.Errorf("failed to find profile in tx: %w", err)
	}
	return profile, nil
}

// CreateProfile はプロフィールをトランザクション内で作成する。
func (t *pgRegistrationTx) CreateProfile(ctx context.Context, profile *model.Profile) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name, main_email, tee_shirt_size, conference_keys_to_attend, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.UserID, profile.DisplayName, profile.MainEmail, string(profile.TeeShirtSize),
		pq.Array(profile.ConferenceKeysToAttend), profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile in tx: %w", err)
	}
	return nil
}

// FindConference は指定IDの会議をトランザクション内で取得する。
func (t *pgRegistrationTx) FindConference(ctx context.Context, id string) (*model.Conference, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+conferenceColumns+` FROM conferences WHERE id = $1`, id)

	conf, err := scanConference(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conference in tx: %w", err)
	}
	return conf, nil
}

// SaveAttendance はプロフィールの参加予定リストと会議の空席数を
// 同一トランザクション内で書き戻す。両方の書き込みは一緒にコミット
// されるか、どちらもされないかのいずれか。
func (t *pgRegistrationTx) SaveAttendance(ctx context.Context, profile *model.Profile, conference *model.Conference) error {
	now := time.Now()

	_, err := t.tx.ExecContext(ctx,
		`UPDATE profiles SET conference_keys_to_attend = $2, updated_at = $3 WHERE user_id = $1`,
		profile.UserID, pq.Array(profile.ConferenceKeysToAttend), now,
	)
	if err != nil {
		return fmt.Errorf("failed to update attend list in tx: %w", err)
	}

	if conference == nil {
		return nil
	}

	_, err = t.tx.ExecContext(ctx,
		`UPDATE conferences SET seats_available = $2, updated_at = $3 WHERE id = $1`,
		conference.ID, conference.SeatsAvailable, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update seats in tx: %w", err)
	}
	return nil
}

// compile-time interface checks
var (
	_ RegistrationStore = (*PostgresRegistrationStore)(nil)
	_ RegistrationTx    = (*pgRegistrationTx)(nil)
)
