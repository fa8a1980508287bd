package audit

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"
)

// LogProcessor prints records through the standard logger. A non-empty Filter
// keeps only records whose message or action contains it, case-insensitively.
type LogProcessor struct {
	Filter string
}

func (p *LogProcessor) Process(batch []Record) error {
	for _, rec := range batch {
		if !p.matches(rec) {
			continue
		}
		log.Printf("AUDIT: %s | %s %s/%s | %s -> %s | by %s | %s",
			rec.Timestamp.Format(time.RFC3339), rec.Action, rec.Collection, rec.RecordID,
			rec.OldState, rec.NewState, rec.Actor, rec.Message)
	}
	return nil
}

func (p *LogProcessor) matches(rec Record) bool {
	if p.Filter == "" {
		return true
	}
	f := strings.ToLower(p.Filter)
	return strings.Contains(strings.ToLower(rec.Message), f) || strings.Contains(strings.ToLower(rec.Action), f)
}

// SQLProcessor inserts batches into the audit_logs table created by the store migrations.
type SQLProcessor struct {
	db      *sql.DB
	dollars bool
}

// NewSQLProcessor picks the placeholder style from the driver name:
// "$n" for postgres and pgx, "?" otherwise.
func NewSQLProcessor(db *sql.DB, driver string) *SQLProcessor {
	return &SQLProcessor{db: db, dollars: driver == "postgres" || driver == "pgx"}
}

const auditColumns = 8

func (p *SQLProcessor) Process(batch []Record) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO audit_logs (timestamp, action, record_id, old_state, new_state, actor, message, collection) VALUES `)

	params := make([]interface{}, 0, len(batch)*auditColumns)
	paramIndex := 1
	for i, rec := range batch {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(")
		for c := 0; c < auditColumns; c++ {
			if c > 0 {
				sb.WriteString(",")
			}
			if p.dollars {
				sb.WriteString(fmt.Sprintf("$%d", paramIndex))
			} else {
				sb.WriteString("?")
			}
			paramIndex++
		}
		sb.WriteString(")")
		params = append(params, rec.Timestamp.UTC(), rec.Action, rec.RecordID, rec.OldState, rec.NewState, rec.Actor, rec.Message, rec.Collection)
	}
	if _, err := p.db.Exec(sb.String(), params...); err != nil {
		return fmt.Errorf("SQLProcessor error: %w", err)
	}
	return nil
}
