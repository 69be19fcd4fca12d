package auditlog

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"valuerank/internal/config"
	"valuerank/internal/database"
	"valuerank/internal/source"
)

// Open builds the sink selected by cfg.Audit.Kind and wraps it in a
// Recorder. Failing to open a sink degrades to Nop instead of failing the
// caller.
func Open(ctx context.Context, cfg *config.Config) *Recorder {
	sink, err := openSink(ctx, cfg)
	if err != nil {
		zap.L().Warn("audit: sink unavailable, events will be dropped",
			zap.String("kind", cfg.Audit.Kind),
			zap.Error(err),
		)
		sink = Nop{}
	}
	return NewRecorder(sink, cfg.Audit.Timezone)
}

func openSink(ctx context.Context, cfg *config.Config) (Sink, error) {
	ac := cfg.Audit
	switch ac.Kind {
	case "", "none":
		return Nop{}, nil
	case "csv":
		return NewCSV(ac.Path), nil
	case "sqlite":
		s, err := NewSQLite(ac.Path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "gsheet":
		svc, err := source.NewSheetsService(ctx, ac.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return NewSheets(svc, ac.SpreadsheetID, ac.GID), nil
	case "oracle":
		db, err := database.NewDatabase(ctx, database.DBConfig{
			Host:           cfg.Oracle.Host,
			Port:           cfg.Oracle.Port,
			Service:        cfg.Oracle.Service,
			Username:       cfg.Oracle.Username,
			Password:       cfg.Oracle.Password,
			WalletLocation: cfg.Oracle.WalletLocation,
		})
		if err != nil {
			return nil, err
		}
		s, err := NewOracle(db, ac.Table)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, eris.Errorf("audit: unknown kind %q", ac.Kind)
}
