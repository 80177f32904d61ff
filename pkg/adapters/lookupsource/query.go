package lookupsource

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// DuplicateProbeLimit is how many rows indexed sources fetch per lookup.
// A second row means the serial is not unique in the store; the first row is
// still returned and the duplicate is logged.
const DuplicateProbeLimit = 2

// Dialect holds the per-database pieces of the single lookup query.
type Dialect struct {
	// QuoteIdent quotes one identifier part.
	QuoteIdent func(string) string
	// Placeholder is the bind parameter for the serial ("$1", "@p1", "?").
	Placeholder string
	// TopN puts the row limit in a SELECT TOP (n) clause instead of LIMIT n.
	TopN bool
}

// QuoteDouble quotes an identifier with ANSI double quotes.
func QuoteDouble(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteBracket quotes an identifier the SQL Server way.
func QuoteBracket(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

// QuoteTable quotes a possibly schema-qualified table name part by part.
func (d Dialect) QuoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}

// SelectBySerialQuery builds the parameterised lookup query over the canonical columns.
// The serial is always bound, never interpolated.
func SelectBySerialQuery(d Dialect, table string, limit int) string {
	cols := make([]string, len(models.SourceColumns))
	for i, c := range models.SourceColumns {
		cols[i] = d.QuoteIdent(c)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if d.TopN {
		fmt.Fprintf(&b, "TOP (%d) ", limit)
	}
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(d.QuoteTable(table))
	b.WriteString(" WHERE ")
	b.WriteString(d.QuoteIdent(models.ColumnPCBSrNo))
	b.WriteString(" = ")
	b.WriteString(d.Placeholder)
	if !d.TopN {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String()
}

// StatsQuery builds the aggregate query behind StatsSource: the row count plus
// distinct non-blank counts of models.StatsColumns. Blank strings count as NULL,
// as they do for the spreadsheet source.
func StatsQuery(d Dialect, table string) string {
	parts := []string{"COUNT(*)"}
	for _, c := range models.StatsColumns {
		parts = append(parts, fmt.Sprintf("COUNT(DISTINCT NULLIF(TRIM(%s), ''))", d.QuoteIdent(c)))
	}
	return "SELECT " + strings.Join(parts, ", ") + " FROM " + d.QuoteTable(table)
}

// StatsDest returns scan destinations for a StatsQuery row, in column order.
func StatsDest(st *models.Stats) []any {
	return []any{&st.TotalRecords, &st.UniqueLotNumbers, &st.UniqueModels, &st.UniquePartCodes, &st.UniqueTickets}
}

// ScanRows reads every row of a database/sql result into SourceRecords keyed by
// lower-cased column name. Byte slices are converted to strings.
func ScanRows(rows *sql.Rows) ([]models.SourceRecord, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	for i, c := range cols {
		cols[i] = strings.ToLower(c)
	}

	var out []models.SourceRecord
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec := make(models.SourceRecord, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// FirstMatch resolves the rows an indexed query returned into one lookup outcome.
func FirstMatch(source, serial string, records []models.SourceRecord, logger *zap.Logger) (models.SourceRecord, error) {
	if len(records) == 0 {
		return nil, &apperrors.NotFoundError{Serial: serial}
	}
	if len(records) > 1 {
		logger.Warn("Serial number is not unique, returning first row",
			zap.String("source", source),
			zap.String("serial", logging.TruncateValue(serial)),
		)
	}
	return records[0], nil
}
