package api

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"company-verify/internal/explain"
	"company-verify/internal/match"
	"company-verify/internal/scoring"
	"company-verify/internal/signal"
	"company-verify/internal/store"
	"company-verify/internal/util"
	"company-verify/internal/verify"
)

const (
	defaultExplainTimeout = 30 * time.Second
	defaultPageSize       = 25
	maxPageSize           = 500
)

// Config defines server dependencies.
type Config struct {
	Verifier *verify.Verifier
	// DBPath enables the audit history when non-empty.
	DBPath         string
	SilentDB       bool
	AllowedOrigins []string
	AIConfig       explain.Config
	DisableAI      bool
	ExplainTimeout time.Duration
}

// Server wires HTTP handlers with the verifier, the audit history and the explainer.
type Server struct {
	verifier       *verify.Verifier
	db             *store.Database
	explainer      explain.Explainer
	allowedOrigins []string
	explainTimeout time.Duration
	notifier       *VerificationNotifier
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Verifier == nil {
		return nil, errors.New("verifier required")
	}

	var db *store.Database
	if path := strings.TrimSpace(cfg.DBPath); path != "" {
		opened, err := store.Open(path, cfg.SilentDB)
		if err != nil {
			return nil, err
		}
		db = opened
		logrus.WithField("path", path).Info("verification history enabled")
	} else {
		logrus.Info("verification history disabled")
	}

	var explainer explain.Explainer = explain.NewHeuristic()
	if cfg.DisableAI {
		logrus.Info("AI explainer disabled via configuration")
	} else if client, err := explain.NewClient(cfg.AIConfig); err == nil {
		explainer = explain.WithFallback(client, explainer)
		logrus.WithField("model", cfg.AIConfig.Model).Info("AI explainer enabled")
	} else if errors.Is(err, explain.ErrDisabled) {
		logrus.Info("AI explainer disabled - no API key configured")
	} else {
		return nil, fmt.Errorf("ai client: %w", err)
	}

	timeout := cfg.ExplainTimeout
	if timeout <= 0 {
		timeout = defaultExplainTimeout
	}

	return &Server{
		verifier:       cfg.Verifier,
		db:             db,
		explainer:      explainer,
		allowedOrigins: cfg.AllowedOrigins,
		explainTimeout: timeout,
		notifier:       NewVerificationNotifier(),
	}, nil
}

// Close releases the history database.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/verify", s.handleVerify)
		api.GET("/verify", s.handleVerify)
		api.GET("/verify/stream", s.handleVerifyStream)
		api.GET("/verifications", s.handleListVerifications)
		api.GET("/verifications/stream", s.handleFeed)
		api.GET("/verifications/:id", s.handleGetVerification)
		api.GET("/export.csv", s.handleExportCSV)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	sources := make([]gin.H, 0, len(signal.Sources))
	for _, src := range signal.Sources {
		sources = append(sources, gin.H{"id": src, "label": src.Label()})
	}
	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"weights": gin.H{
			"registry-a":              scoring.WeightRegistryA,
			"registry-b_registered":   scoring.WeightRegistryBRegistered,
			"registry-b_other":        scoring.WeightRegistryBUnregistered,
			"regulator-list_listed":   scoring.WeightRegulatorListed,
			"regulator-list_unlisted": scoring.WeightRegulatorUnlisted,
			"trade-history":           scoring.WeightTrade,
			"domain-record":           scoring.WeightDomain,
			"news":                    scoring.WeightNews,
		},
		"thresholds": gin.H{
			"legitimate":   scoring.LegitimateThreshold,
			"needs_review": scoring.NeedsReviewThreshold,
		},
		"source_timeout_ms": s.verifier.SourceTimeout().Milliseconds(),
		"concurrency":       s.verifier.Concurrency(),
		"history_enabled":   s.db != nil,
		"explainer_enabled": s.explainer != nil && s.explainer.Enabled(),
		"feed_subscribers":  s.notifier.Subscribers(),
	})
}

func (s *Server) handleVerify(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if c.Request.Method == http.MethodPost {
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		name = strings.TrimSpace(req.CompanyName)
	}
	if name == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("company name is required"))
		return
	}

	dto := s.runVerification(c.Request.Context(), uuid.NewString(), name, nil)
	c.JSON(http.StatusOK, dto)
}

// runVerification verifies name, attaches a narrative, records the snapshot
// and announces it on the feed. A request aborted by its caller is neither
// recorded nor announced; its report only reflects the cancellation.
func (s *Server) runVerification(ctx context.Context, id, name string, observe verify.Observer) ReportDTO {
	timer := util.StartTimer()
	report := s.verifier.VerifyObserved(ctx, name, observe)
	elapsed := timer.ElapsedMs()

	if err := ctx.Err(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"id":      id,
			"company": name,
		}).Warn("verification aborted, not recorded")
		return FromReport(id, report, explain.Explanation{}, elapsed, time.Now())
	}

	explanation := s.explain(ctx, report)
	dto := FromReport(id, report, explanation, elapsed, time.Now())
	s.record(dto)

	s.notifier.Broadcast(VerificationEvent{
		Type:        EventReport,
		RequestID:   id,
		CompanyName: dto.CompanyName,
		Report:      &dto,
	})
	return dto
}

func (s *Server) explain(ctx context.Context, report verify.Report) explain.Explanation {
	if s.explainer == nil || !s.explainer.Enabled() {
		return explain.Explanation{}
	}
	ctx, cancel := context.WithTimeout(ctx, s.explainTimeout)
	defer cancel()
	out, err := s.explainer.Explain(ctx, report)
	if err != nil {
		logrus.WithError(err).WithField("company", report.CompanyName).Warn("explain verification")
		return explain.Explanation{}
	}
	return out
}

func (s *Server) record(dto ReportDTO) {
	if s.db == nil {
		return
	}
	row, err := ToModel(dto, match.NormalizeCompany(dto.CompanyName).Key)
	if err == nil {
		err = s.db.SaveVerification(row)
	}
	if err != nil {
		logrus.WithError(err).WithField("id", dto.ID).Error("save verification")
	}
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}
}

func (s *Server) handleVerifyStream(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("company name is required"))
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}
	client := &wsClient{conn: conn}
	defer client.close("verification complete")

	id := uuid.NewString()
	_ = client.writeJSON(VerificationEvent{Type: EventStarted, RequestID: id, CompanyName: name, Timestamp: time.Now().UTC()})

	dto := s.runVerification(c.Request.Context(), id, name, func(rec signal.Record) {
		check := checkFromRecord(rec, scoring.WeightFor(rec.Source, rec))
		if err := client.writeJSON(VerificationEvent{
			Type:        EventSignal,
			RequestID:   id,
			CompanyName: name,
			Signal:      &check,
			Timestamp:   time.Now().UTC(),
		}); err != nil {
			logrus.WithError(err).WithField("source", rec.Source).Debug("write signal event")
		}
	})

	if err := client.writeJSON(VerificationEvent{
		Type:        EventReport,
		RequestID:   id,
		CompanyName: name,
		Report:      &dto,
		Timestamp:   time.Now().UTC(),
	}); err != nil {
		logrus.WithError(err).Warn("write report event")
	}
}

func (s *Server) handleFeed(c *gin.Context) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("verification feed connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("verification feed closed")
			} else {
				logrus.WithError(err).Warn("verification feed unexpected close")
			}
			break
		}
	}
}

func (s *Server) handleListVerifications(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	minScore, _ := strconv.ParseFloat(c.Query("minScore"), 64)

	rows, total, err := s.db.ListVerifications(store.VerificationQuery{
		Query:    match.NormalizeCompany(c.Query("q")).Key,
		Verdict:  strings.TrimSpace(c.Query("verdict")),
		MinScore: minScore,
		Sort:     strings.TrimSpace(c.Query("sort")),
		Offset:   page * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]ReportDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	c.JSON(http.StatusOK, VerificationsResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetVerification(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid id: %s", id))
		return
	}
	row, err := s.db.GetVerification(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("verification %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, FromModel(*row))
}

func (s *Server) handleExportCSV(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	rows, _, err := s.db.ListVerifications(store.VerificationQuery{
		Verdict: strings.TrimSpace(c.Query("verdict")),
		Sort:    "created_asc",
		Limit:   -1,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=company-verifications.csv")
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	headers := []string{"id", "company_name", "verdict", "composite_score", "failed_sources"}
	for _, src := range signal.Sources {
		headers = append(headers, string(src))
	}
	headers = append(headers, "explanation", "checked_at")
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, row := range rows {
		dto := FromModel(row)
		line := []string{
			dto.ID,
			dto.CompanyName,
			dto.Verdict,
			strconv.FormatFloat(dto.CompositeScore, 'f', 1, 64),
			strconv.Itoa(row.FailedSources),
		}
		byID := make(map[string]CheckDTO, len(dto.Checks))
		for _, check := range dto.Checks {
			byID[check.Source] = check
		}
		for _, src := range signal.Sources {
			check, ok := byID[string(src)]
			switch {
			case !ok:
				line = append(line, "")
			case check.Error != "":
				line = append(line, "error")
			default:
				line = append(line, strconv.FormatFloat(check.Confidence, 'f', -1, 64))
			}
		}
		line = append(line, dto.Explanation, dto.CheckedAt.Format(time.RFC3339))
		if err := writer.Write(line); err != nil {
			return
		}
	}
	writer.Flush()
}

func (s *Server) requireHistory(c *gin.Context) bool {
	if s.db != nil {
		return true
	}
	s.renderError(c, http.StatusNotFound, errors.New("verification history is disabled"))
	return false
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
