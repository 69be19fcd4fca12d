package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"valuerank/internal/auditlog"
	"valuerank/internal/comparable"
	"valuerank/internal/rank"
	"valuerank/internal/report"
	"valuerank/internal/series"
	"valuerank/internal/types"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ranks and comparables as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := loadDataset(ctx)
		if err != nil {
			return err
		}
		defaults, err := (&queryFlags{}).query(cmd)
		if err != nil {
			return err
		}

		rec := openAudit(ctx)
		defer rec.Close()

		api := &server{ds: ds, rec: rec, defaults: defaults}
		var h http.Handler = api.router()
		h = handlers.CORS(
			handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		)(h)
		h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
		h = handlers.LoggingHandler(os.Stdout, h)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Int("units", len(ds.Rows)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server answers queries against one loaded dataset.
type server struct {
	ds       *types.Dataset
	rec      *auditlog.Recorder
	defaults comparable.Query
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/zones", s.zones).Methods(http.MethodGet)
	r.HandleFunc("/choices", s.choices).Methods(http.MethodGet)
	r.HandleFunc("/ranks", s.ranks).Methods(http.MethodGet)
	r.HandleFunc("/compare", s.compare).Methods(http.MethodGet)
	r.HandleFunc("/series", s.series).Methods(http.MethodGet)
	r.HandleFunc("/report", s.report).Methods(http.MethodGet)

	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"units":  len(s.ds.Rows),
		"years":  s.ds.Years,
	})
}

func (s *server) zones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"zones": s.ds.Zones()})
}

func (s *server) choices(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	level, options := s.ds.Choices(sel)
	if level != types.LevelDone && len(options) == 0 {
		writeError(w, &types.NotFoundError{Subject: describeSelection(sel)})
		return
	}
	if options == nil {
		options = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"level": level, "options": options})
}

func (s *server) ranks(w http.ResponseWriter, r *http.Request) {
	key, err := s.keyFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ranks, err := rank.New(s.ds).Unit(key)
	if err != nil {
		writeError(w, err)
		return
	}
	s.rec.Record(r.Context(), auditlog.DeviceClass(r.UserAgent()), key, auditlog.EventInspect)
	writeJSON(w, http.StatusOK, map[string]any{"unit": key, "ranks": ranks})
}

func (s *server) compare(w http.ResponseWriter, r *http.Request) {
	key, err := s.keyFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := s.queryFromRequest(r)
	if err != nil {
		writeError(w, badRequest(err))
		return
	}

	res, err := comparable.New(s.ds).Find(key, q)
	if err != nil && !types.IsEmptyResult(err) {
		writeError(w, err)
		return
	}
	s.rec.Record(r.Context(), auditlog.DeviceClass(r.UserAgent()), key, auditlog.EventCompare)

	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"unit": key, "comparable": nil, "reason": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": key, "comparable": res})
}

func (s *server) series(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	units, groups := params["unit"], params["group"]
	if len(units) == 0 && len(groups) == 0 {
		writeError(w, badRequest(errors.New("at least one unit or group parameter is required")))
		return
	}

	var all []series.Series
	for _, u := range units {
		key, err := types.ParseKey(u)
		if err != nil {
			writeError(w, badRequest(err))
			return
		}
		sr, err := series.ForUnit(s.ds, key)
		if err != nil {
			writeError(w, err)
			return
		}
		s.rec.Record(r.Context(), auditlog.DeviceClass(r.UserAgent()), key, auditlog.EventSeries)
		all = append(all, sr)
	}
	for _, g := range groups {
		grp, err := parseGroup(g)
		if err != nil {
			writeError(w, badRequest(err))
			return
		}
		sr, err := series.GroupMean(s.ds, grp)
		if err != nil {
			writeError(w, err)
			return
		}
		all = append(all, sr)
	}

	writeJSON(w, http.StatusOK, map[string]any{"series": series.Align(all...)})
}

func (s *server) report(w http.ResponseWriter, r *http.Request) {
	key, err := s.keyFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := s.queryFromRequest(r)
	if err != nil {
		writeError(w, badRequest(err))
		return
	}
	rep, err := report.Build(s.ds, key, q)
	if err != nil {
		writeError(w, err)
		return
	}
	s.rec.Record(r.Context(), auditlog.DeviceClass(r.UserAgent()), key, auditlog.EventInspect)
	writeJSON(w, http.StatusOK, rep)
}

// keyFromQuery requires a complete zone/building/block/unit selection.
func (s *server) keyFromQuery(r *http.Request) (types.Key, error) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		return types.Key{}, err
	}
	key, ok := sel.Key()
	if !ok {
		return types.Key{}, badRequest(fmt.Errorf("%s is required", sel.Next()))
	}
	return key, nil
}

func selectionFromQuery(r *http.Request) (types.Selection, error) {
	params := r.URL.Query()
	var sel types.Selection
	for _, level := range []types.Level{types.LevelZone, types.LevelBuilding, types.LevelBlock, types.LevelUnit} {
		v := strings.TrimSpace(params.Get(string(level)))
		if v == "" {
			continue
		}
		next, err := sel.With(level, v)
		if err != nil {
			return sel, badRequest(err)
		}
		sel = next
	}
	return sel, nil
}

// queryFromRequest overlays mode, base_year, latest_year and breadth
// parameters on the server defaults.
func (s *server) queryFromRequest(r *http.Request) (comparable.Query, error) {
	params := r.URL.Query()
	q := s.defaults

	if v := params.Get("mode"); v != "" {
		m, err := comparable.ParseMode(v)
		if err != nil {
			return q, err
		}
		q.Mode = m
	}
	for name, dst := range map[string]*int{
		"base_year":   &q.BaseYear,
		"latest_year": &q.LatestYear,
		"breadth":     &q.Breadth,
	} {
		v := params.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("%s must be an integer, got %q", name, v)
		}
		*dst = n
	}
	return q, nil
}

// requestError marks an error caused by the request itself.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

func writeError(w http.ResponseWriter, err error) {
	var re *requestError
	switch {
	case types.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &re):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
