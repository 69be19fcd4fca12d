package auditlog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Execer runs a statement that returns no rows.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

var tableName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]{0,127}$`)

// OracleSink inserts events into an Oracle table.
type OracleSink struct {
	db    Execer
	table string
}

// NewOracle returns a sink inserting into table through db. The table name
// must be a plain Oracle identifier; it is upper-cased.
func NewOracle(db Execer, table string) (*OracleSink, error) {
	if !tableName.MatchString(table) {
		return nil, eris.Errorf("oracle: invalid audit table name %q", table)
	}
	return &OracleSink{db: db, table: strings.ToUpper(table)}, nil
}

// Migrate creates the table, tolerating ORA-00955 (name already used).
func (s *OracleSink) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE %s (
		ID         VARCHAR2(36) PRIMARY KEY,
		EVENT_DATE VARCHAR2(10) NOT NULL,
		EVENT_TIME VARCHAR2(8) NOT NULL,
		DEVICE     VARCHAR2(16) NOT NULL,
		ZONE       VARCHAR2(200) NOT NULL,
		BUILDING   VARCHAR2(200) NOT NULL,
		BLOCK_NO   NUMBER(10) NOT NULL,
		UNIT_NO    NUMBER(10) NOT NULL,
		EVENT      VARCHAR2(32) NOT NULL,
		CREATED_AT TIMESTAMP WITH TIME ZONE NOT NULL
	)`, s.table)

	if err := s.db.Exec(ctx, ddl); err != nil {
		if strings.Contains(err.Error(), "ORA-00955") {
			return nil
		}
		return eris.Wrap(err, "oracle: migrate audit table")
	}
	return nil
}

func (s *OracleSink) Append(ctx context.Context, e Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (ID, EVENT_DATE, EVENT_TIME, DEVICE, ZONE, BUILDING, BLOCK_NO, UNIT_NO, EVENT, CREATED_AT)
		VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10)`, s.table)
	err := s.db.Exec(ctx, query,
		e.ID.String(), e.Date(), e.Clock(), e.DeviceClass,
		e.Unit.Zone, e.Unit.Building, e.Unit.Block, e.Unit.Unit, e.Name, e.At,
	)
	return eris.Wrap(err, "oracle: insert audit event")
}

func (s *OracleSink) Close() error {
	return s.db.Close()
}
