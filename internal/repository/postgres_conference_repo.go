package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/confhub/internal/model"
)

// conferenceColumns は会議取得クエリで使用するカラム列。
const conferenceColumns = `id, organizer_user_id, name, description, topics, city, start_date, end_date, month, max_attendees, seats_available, created_at, updated_at`

// PostgresConferenceRepo はPostgreSQLを使用した会議リポジトリ。
type PostgresConferenceRepo struct {
	db *sql.DB
}

// NewPostgresConferenceRepo はPostgresConferenceRepoを生成する。
func NewPostgresConferenceRepo(db *sql.DB) *PostgresConferenceRepo {
	return &PostgresConferenceRepo{db: db}
}

// scanConference は1行を会議エンティティに変換する。
func scanConference(scan func(dest ...any) error) (*model.Conference, error) {
	conf := &model.Conference{}
	var startDate, endDate sql.NullTime
	err := scan(
		&conf.ID, &conf.OrganizerUserID, &conf.Name, &conf.Description,
		pq.Array(&conf.Topics), &conf.City, &startDate, &endDate,
		&conf.Month, &conf.MaxAttendees, &conf.SeatsAvailable,
		&conf.CreatedAt, &conf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		t := startDate.Time
		conf.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		conf.EndDate = &t
	}
	return conf, nil
}

// FindByID は指定IDの会議を取得する。見つからない場合はnilを返す。
func (r *PostgresConferenceRepo) FindByID(ctx context.Context, id string) (*model.Conference, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+conferenceColumns+` FROM conferences WHERE id = $1`, id)

	conf, err := scanConference(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conference by ID: %w", err)
	}
	return conf, nil
}

// FindByIDs は複数IDの会議を一括取得する。入力順を保持し、
// 見つからないIDはスキップする。
func (r *PostgresConferenceRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Conference, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+conferenceColumns+` FROM conferences WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find conferences by IDs: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*model.Conference, len(ids))
	for rows.Next() {
		conf, err := scanConference(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conference: %w", err)
		}
		byID[conf.ID] = conf
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conferences: %w", err)
	}

	// 入力順を保持して返す
	conferences := make([]*model.Conference, 0, len(byID))
	for _, id := range ids {
		if conf, ok := byID[id]; ok {
			conferences = append(conferences, conf)
		}
	}
	return conferences, nil
}

// Create は会議を作成する。
func (r *PostgresConferenceRepo) Create(ctx context.Context, conf *model.Conference) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conferences (id, organizer_user_id, name, description, topics, city, start_date, end_date, month, max_attendees, seats_available, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		conf.ID, conf.OrganizerUserID, conf.Name, conf.Description,
		pq.Array(conf.Topics), conf.City, conf.StartDate, conf.EndDate,
		conf.Month, conf.MaxAttendees, conf.SeatsAvailable,
		conf.CreatedAt, conf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conference: %w", err)
	}
	return nil
}

// Update は会議の記述フィールドを更新する。
// seats_availableは登録トランザクションのみが変更するため対象外。
func (r *PostgresConferenceRepo) Update(ctx context.Context, conf *model.Conference) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conferences
		 SET name = $2, description = $3, topics = $4, city = $5,
		     start_date = $6, end_date = $7, month = $8, max_attendees = $9, updated_at = $10
		 WHERE id = $1`,
		conf.ID, conf.Name, conf.Description, pq.Array(conf.Topics), conf.City,
		conf.StartDate, conf.EndDate, conf.Month, conf.MaxAttendees, conf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update conference: %w", err)
	}
	return nil
}

// ListByOrganizer は指定ユーザーが主催する会議一覧を返す。
func (r *PostgresConferenceRepo) ListByOrganizer(ctx context.Context, organizerUserID string) ([]*model.Conference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+conferenceColumns+` FROM conferences WHERE organizer_user_id = $1 ORDER BY name, id`,
		organizerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conferences by organizer: %w", err)
	}
	defer rows.Close()

	return collectConferences(rows)
}

// Query は検証済みフィルタ列を適用して会議を検索する。
// 結果はname, idの順で安定ソートされる。
func (r *PostgresConferenceRepo) Query(ctx context.Context, filters []Filter) ([]*model.Conference, error) {
	query, args := buildConferenceQuery(filters)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conferences: %w", err)
	}
	defer rows.Close()

	return collectConferences(rows)
}

// buildConferenceQuery はフィルタ列からWHERE句付きのSELECT文を組み立てる。
// topicsは配列カラムのためANY検索、それ以外は単純な比較条件になる。
func buildConferenceQuery(filters []Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + conferenceColumns + ` FROM conferences`)

	args := make([]any, 0, len(filters))
	for i, f := range filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}

		args = append(args, f.Value)
		placeholder := fmt.Sprintf("$%d", len(args))

		switch f.Field {
		case FilterFieldTopics:
			if f.Op == FilterOpNe {
				sb.WriteString("NOT (" + placeholder + " = ANY(topics))")
			} else {
				sb.WriteString(placeholder + " = ANY(topics)")
			}
		case FilterFieldMaxAttendees:
			sb.WriteString("max_attendees " + string(f.Op) + " " + placeholder)
		default:
			sb.WriteString(f.Field + " " + string(f.Op) + " " + placeholder)
		}
	}

	sb.WriteString(" ORDER BY name, id")
	return sb.String(), args
}

// ListNearSoldOutNames は 0 < seats_available <= maxSeats の会議の
// 名前のみを射影して返す。
func (r *PostgresConferenceRepo) ListNearSoldOutNames(ctx context.Context, maxSeats int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM conferences
		 WHERE seats_available > 0 AND seats_available <= $1
		 ORDER BY name, id`,
		maxSeats,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list near sold out conferences: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan conference name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conference names: %w", err)
	}

	return names, nil
}

// collectConferences は結果セット全体を会議エンティティ列に変換する。
func collectConferences(rows *sql.Rows) ([]*model.Conference, error) {
	var conferences []*model.Conference
	for rows.Next() {
		conf, err := scanConference(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conference: %w", err)
		}
		conferences = append(conferences, conf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conferences: %w", err)
	}
	return conferences, nil
}

// compile-time interface check
var _ ConferenceRepository = (*PostgresConferenceRepo)(nil)
