package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mikey/mailguard/internal/core"
)

// Columns is the CSV header row
var Columns = []string{
	"id",
	"message_id",
	"sender",
	"subject",
	"verdict",
	"score",
	"reasons",
	"created_at",
	"body",
	"body_with_ocr",
	"attachments_text",
	"ocr_used",
	"blocklist_status",
}

var sinceLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// RecordLister lists stored records newest first
type RecordLister interface {
	List(ctx context.Context, opts core.ListOptions) ([]*core.AnalysisRecord, error)
}

// ParseSince parses an RFC 3339 timestamp or a date. Values without a zone are UTC.
func ParseSince(value string) (time.Time, error) {
	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid since value %q: want RFC 3339 or YYYY-MM-DD", value)
}

// WriteCSV writes the matching records to w and returns how many rows were written
func WriteCSV(ctx context.Context, records RecordLister, opts core.ListOptions, w io.Writer) (int, error) {
	recs, err := records.List(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to list records: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return 0, err
	}
	for _, rec := range recs {
		row, err := toRow(rec)
		if err != nil {
			return 0, err
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(recs), cw.Error()
}

func toRow(rec *core.AnalysisRecord) ([]string, error) {
	reasons, err := jsonList(rec.Reasons)
	if err != nil {
		return nil, err
	}
	texts, err := jsonList(rec.AttachmentTexts)
	if err != nil {
		return nil, err
	}

	score := ""
	if rec.Score != nil {
		score = strconv.FormatFloat(*rec.Score, 'f', -1, 64)
	}

	return []string{
		strconv.FormatInt(rec.ID, 10),
		rec.MessageID,
		rec.Sender,
		rec.Subject,
		string(rec.Verdict),
		score,
		reasons,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Body,
		rec.BodyWithOCR,
		texts,
		strconv.FormatBool(rec.OCRUsed),
		string(rec.Blocklist.Status),
	}, nil
}

func jsonList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
