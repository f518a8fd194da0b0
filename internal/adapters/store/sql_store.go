package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mikey/mailguard/internal/core"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// SQLStore is a core.RecordStore backed by a SQL database
type SQLStore struct {
	db      *sqlx.DB
	dialect dialect
	logger  *zap.Logger
}

// newSQLStore runs the embedded migrations for the dialect and wraps db.
func newSQLStore(db *sqlx.DB, d dialect, logger *zap.Logger) (*SQLStore, error) {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations/" + d.migrateDialect,
	}
	applied, err := migrate.Exec(db.DB, d.migrateDialect, source, migrate.Up)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s database: %w", d.name, err)
	}
	logger.Info("Record store ready", zap.String("driver", d.name), zap.Int("migrations_applied", applied))

	return &SQLStore{db: db, dialect: d, logger: logger}, nil
}

// recordRow is the column layout of analysis_records
type recordRow struct {
	ID              int64           `db:"id"`
	MessageID       string          `db:"message_id"`
	Sender          string          `db:"sender"`
	Subject         string          `db:"subject"`
	Body            string          `db:"body"`
	BodyWithOCR     string          `db:"body_with_ocr"`
	AttachmentsText string          `db:"attachments_text"`
	AttachmentsMeta string          `db:"attachments_meta"`
	OCRUsed         bool            `db:"ocr_used"`
	BlocklistStatus string          `db:"blocklist_status"`
	BlocklistHosts  string          `db:"blocklist_hosts"`
	MaliciousHosts  string          `db:"blocklist_malicious_hosts"`
	BenignHosts     string          `db:"blocklist_benign_hosts"`
	UsedModel       bool            `db:"used_model"`
	ModelKind       string          `db:"model_kind"`
	ModelScore      sql.NullFloat64 `db:"model_score"`
	Verdict         string          `db:"verdict"`
	Score           sql.NullFloat64 `db:"score"`
	Reasons         string          `db:"reasons"`
	CreatedAt       time.Time       `db:"created_at"`
}

const selectColumns = `id, message_id, sender, subject, body, body_with_ocr, attachments_text,
	attachments_meta, ocr_used, blocklist_status, blocklist_hosts, blocklist_malicious_hosts,
	blocklist_benign_hosts, used_model, model_kind, model_score, verdict, score, reasons, created_at`

const insertRecord = `INSERT INTO analysis_records (
	message_id, sender, subject, body, body_with_ocr, attachments_text, attachments_meta,
	ocr_used, blocklist_status, blocklist_hosts, blocklist_malicious_hosts,
	blocklist_benign_hosts, used_model, model_kind, model_score, verdict, score, reasons,
	created_at
) VALUES (
	:message_id, :sender, :subject, :body, :body_with_ocr, :attachments_text, :attachments_meta,
	:ocr_used, :blocklist_status, :blocklist_hosts, :blocklist_malicious_hosts,
	:blocklist_benign_hosts, :used_model, :model_kind, :model_score, :verdict, :score, :reasons,
	:created_at
)`

const updateRecord = `UPDATE analysis_records SET
	attachments_meta = :attachments_meta,
	blocklist_status = :blocklist_status,
	blocklist_hosts = :blocklist_hosts,
	blocklist_malicious_hosts = :blocklist_malicious_hosts,
	blocklist_benign_hosts = :blocklist_benign_hosts,
	used_model = :used_model,
	model_kind = :model_kind,
	model_score = :model_score,
	verdict = :verdict,
	score = :score,
	reasons = :reasons
WHERE message_id = :message_id`

// FindByMessageID loads one record
func (s *SQLStore) FindByMessageID(ctx context.Context, messageID string) (*core.AnalysisRecord, error) {
	var row recordRow
	query := s.db.Rebind(`SELECT ` + selectColumns + ` FROM analysis_records WHERE message_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	return row.toRecord()
}

// List returns records newest first
func (s *SQLStore) List(ctx context.Context, opts core.ListOptions) ([]*core.AnalysisRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM analysis_records`
	var args []any
	if !opts.Since.IsZero() {
		query += ` WHERE created_at >= ?`
		args = append(args, opts.Since.UTC())
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, opts.Limit)
	}

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]*core.AnalysisRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// WithinTx runs fn in a database transaction
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx core.RecordTx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		err = txEnd(tx, err)
	}()
	return fn(&sqlTx{tx: tx, store: s})
}

// txEnd commits when err is nil and rolls back otherwise.
func txEnd(tx *sqlx.Tx, err error) error {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}

type sqlTx struct {
	tx    *sqlx.Tx
	store *SQLStore
}

func (t *sqlTx) Create(ctx context.Context, rec *core.AnalysisRecord) error {
	row, err := fromRecord(rec)
	if err != nil {
		return err
	}
	id, err := t.insert(ctx, row)
	if err != nil {
		if t.store.dialect.isUniqueViolation(err) {
			return core.ErrDuplicateMessageID
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	rec.ID = id
	return nil
}

// insert adds the row and returns its generated id
func (t *sqlTx) insert(ctx context.Context, row *recordRow) (int64, error) {
	if t.store.dialect.returningID {
		stmt, err := t.tx.PrepareNamedContext(ctx, insertRecord+` RETURNING id`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		var id int64
		err = stmt.GetContext(ctx, &id, row)
		return id, err
	}

	res, err := t.tx.NamedExecContext(ctx, insertRecord, row)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *sqlTx) Update(ctx context.Context, rec *core.AnalysisRecord) error {
	row, err := fromRecord(rec)
	if err != nil {
		return err
	}
	res, err := t.tx.NamedExecContext(ctx, updateRecord, row)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return requireAffected(res)
}

func (t *sqlTx) Delete(ctx context.Context, messageID string) error {
	query := t.tx.Rebind(`DELETE FROM analysis_records WHERE message_id = ?`)
	res, err := t.tx.ExecContext(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func fromRecord(rec *core.AnalysisRecord) (*recordRow, error) {
	row := &recordRow{
		ID:              rec.ID,
		MessageID:       rec.MessageID,
		Sender:          rec.Sender,
		Subject:         rec.Subject,
		Body:            rec.Body,
		BodyWithOCR:     rec.BodyWithOCR,
		OCRUsed:         rec.OCRUsed,
		BlocklistStatus: string(rec.Blocklist.Status),
		UsedModel:       rec.UsedModel,
		ModelKind:       string(rec.ModelKind),
		Verdict:         string(rec.Verdict),
		CreatedAt:       rec.CreatedAt.UTC(),
	}
	if rec.ModelScore != nil {
		row.ModelScore = sql.NullFloat64{Float64: *rec.ModelScore, Valid: true}
	}
	if rec.Score != nil {
		row.Score = sql.NullFloat64{Float64: *rec.Score, Valid: true}
	}

	fields := []struct {
		dst *string
		src any
	}{
		{&row.AttachmentsText, rec.AttachmentTexts},
		{&row.AttachmentsMeta, rec.AttachmentsMeta},
		{&row.BlocklistHosts, rec.Blocklist.Hosts},
		{&row.MaliciousHosts, rec.Blocklist.MaliciousHosts},
		{&row.BenignHosts, rec.Blocklist.BenignHosts},
		{&row.Reasons, rec.Reasons},
	}
	for _, f := range fields {
		s, err := encodeJSON(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = s
	}
	return row, nil
}

func (r *recordRow) toRecord() (*core.AnalysisRecord, error) {
	rec := &core.AnalysisRecord{
		ID:          r.ID,
		MessageID:   r.MessageID,
		Sender:      r.Sender,
		Subject:     r.Subject,
		Body:        r.Body,
		BodyWithOCR: r.BodyWithOCR,
		OCRUsed:     r.OCRUsed,
		Blocklist:   core.BlocklistAssessment{Status: core.BlocklistStatus(r.BlocklistStatus)},
		UsedModel:   r.UsedModel,
		ModelKind:   core.ModelKind(r.ModelKind),
		Verdict:     core.Verdict(r.Verdict),
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.ModelScore.Valid {
		v := r.ModelScore.Float64
		rec.ModelScore = &v
	}
	if r.Score.Valid {
		v := r.Score.Float64
		rec.Score = &v
	}

	fields := []struct {
		src string
		dst any
	}{
		{r.AttachmentsText, &rec.AttachmentTexts},
		{r.AttachmentsMeta, &rec.AttachmentsMeta},
		{r.BlocklistHosts, &rec.Blocklist.Hosts},
		{r.MaliciousHosts, &rec.Blocklist.MaliciousHosts},
		{r.BenignHosts, &rec.Blocklist.BenignHosts},
		{r.Reasons, &rec.Reasons},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", r.MessageID, err)
		}
	}
	return rec, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode record field: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}
