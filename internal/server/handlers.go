package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/willfong/portfolio-generator/internal/amortization"
	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/generator"
	"github.com/willfong/portfolio-generator/internal/models"
)

// Paging and input limits
const (
	DefaultLimit = 100
	MaxLimit     = 1000
	// DefaultSeed is used when neither the request nor the config pins one,
	// so paging through a table sees the same rows.
	DefaultSeed = 1
	// MaxTermMonths bounds the installment table of /api/amortize
	MaxTermMonths = 600
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TableCount is one line of the summary
type TableCount struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// SummaryResponse describes a generated portfolio
type SummaryResponse struct {
	Seed     uint64       `json:"seed"`
	Now      string       `json:"now"`
	Currency string       `json:"currency"`
	Tables   []TableCount `json:"tables"`
	Total    int          `json:"total"`
}

// RecordsResponse is one page of a table
type RecordsResponse struct {
	Table   string           `json:"table"`
	Seed    uint64           `json:"seed"`
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	Records []map[string]any `json:"records"`
}

// AmortizeRequest describes one loan. Principal and rate accept JSON numbers
// or strings.
type AmortizeRequest struct {
	Principal  decimal.Decimal `json:"principal"`
	AnnualRate decimal.Decimal `json:"annual_rate"`
	TermMonths int             `json:"term_months"`
	StartDate  string          `json:"start_date"`
	Now        string          `json:"now,omitempty"`
	Schedule   bool            `json:"schedule,omitempty"`
}

// InstallmentDTO is one row of the repayment plan
type InstallmentDTO struct {
	Number    int    `json:"number"`
	DueDate   string `json:"due_date"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Total     string `json:"total"`
	Balance   string `json:"balance"`
}

// AmortizeResponse is the state of the loan at now
type AmortizeResponse struct {
	EMI           string           `json:"emi"`
	MonthsElapsed int              `json:"months_elapsed"`
	PaymentsMade  int              `json:"payments_made"`
	Outstanding   string           `json:"outstanding"`
	Installments  []InstallmentDTO `json:"installments,omitempty"`
}

// Health reports that the process is up.
// GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Summary returns the row count of every table.
// GET /api/portfolio/summary?seed=&customers=&now=
func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	p, ok := s.portfolio(w, r)
	if !ok {
		return
	}
	resp := SummaryResponse{
		Seed:     p.Seed,
		Now:      models.FormatDate(p.Now),
		Currency: p.Currency,
	}
	for _, t := range p.Tables() {
		resp.Tables = append(resp.Tables, TableCount{Name: t.Name, Rows: t.Len})
		resp.Total += t.Len
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRecords returns one page of a table as column to value maps.
// GET /api/portfolio/{table}?seed=&customers=&now=&limit=&offset=
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	if _, ok := (&models.Portfolio{}).Table(name); !ok {
		writeError(w, http.StatusNotFound, "unknown table", fmt.Errorf("%q is not one of %v", name, models.TableNames))
		return
	}
	limit, err := intParam(r, "limit", DefaultLimit)
	if err != nil || limit < 1 || limit > MaxLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be 1..%d", MaxLimit), err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be non-negative", err)
		return
	}

	p, ok := s.portfolio(w, r)
	if !ok {
		return
	}
	t, _ := p.Table(name)

	resp := RecordsResponse{Table: name, Seed: p.Seed, Total: t.Len, Offset: offset, Limit: limit, Records: []map[string]any{}}
	i := 0
	for rec := range t.Rows {
		if i >= offset+limit {
			break
		}
		if i >= offset {
			m, err := t.Map(rec)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to encode record", err)
				return
			}
			resp.Records = append(resp.Records, m)
		}
		i++
	}
	writeJSON(w, http.StatusOK, resp)
}

// Amortize runs the amortization engine for one loan definition.
// POST /api/amortize
func (s *Server) Amortize(w http.ResponseWriter, r *http.Request) {
	var req AmortizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.TermMonths > MaxTermMonths {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("term_months must be at most %d", MaxTermMonths), nil)
		return
	}
	principal, err := amortization.PrincipalFromDecimal(req.Principal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan terms", err)
		return
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD", err)
		return
	}
	if req.Now == "" {
		req.Now = s.defaultNow()
	}
	now, err := config.GenerateConfig{Now: req.Now}.ReferenceTime()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid now", err)
		return
	}

	plan, err := amortization.NewPlan(amortization.Terms{
		Principal:         principal,
		AnnualRatePercent: req.AnnualRate,
		TermMonths:        req.TermMonths,
		StartDate:         start,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan terms", err)
		return
	}

	res := plan.At(now)
	resp := AmortizeResponse{
		EMI:           res.EMI.String(),
		MonthsElapsed: res.MonthsElapsed,
		PaymentsMade:  res.PaymentsMade,
		Outstanding:   res.Outstanding.String(),
	}
	if req.Schedule {
		for _, in := range plan.Installments() {
			resp.Installments = append(resp.Installments, InstallmentDTO{
				Number:    in.Number,
				DueDate:   models.FormatDate(in.DueDate),
				Principal: in.Principal.String(),
				Interest:  in.Interest.String(),
				Total:     in.Total.String(),
				Balance:   in.Balance.String(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// portfolio resolves the request's seed, size and date and returns the
// generated portfolio, writing an error response when it cannot.
func (s *Server) portfolio(w http.ResponseWriter, r *http.Request) (*models.Portfolio, bool) {
	cfg, key, err := s.requestConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio parameters", err)
		return nil, false
	}
	if p, ok := s.cache.get(key); ok {
		return p, true
	}

	start := time.Now()
	p, err := generator.Build(r.Context(), cfg, s.logger)
	if errors.Is(err, config.ErrInvalidConfig) {
		writeError(w, http.StatusBadRequest, "invalid portfolio parameters", err)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generation failed", err)
		return nil, false
	}
	s.logger.Info("portfolio generated",
		slog.Int64("seed", key.seed),
		slog.Int("customers", key.customers),
		slog.Int("records", p.TotalRecords()),
		slog.Duration("duration", time.Since(start)))
	s.cache.put(key, p)
	return p, true
}

// requestConfig scales the configured population to the requested number of
// customers, keeping the configured ratios between tables.
func (s *Server) requestConfig(r *http.Request) (*config.Config, cacheKey, error) {
	base := s.cfg.Generate
	seed := base.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	if v := r.URL.Query().Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n == 0 {
			return nil, cacheKey{}, fmt.Errorf("seed must be a non-zero integer")
		}
		seed = n
	}

	customers, err := intParam(r, "customers", min(base.NumCustomers, s.cfg.Server.MaxCustomers))
	if err != nil {
		return nil, cacheKey{}, err
	}
	if customers < 1 || customers > s.cfg.Server.MaxCustomers {
		return nil, cacheKey{}, fmt.Errorf("customers must be 1..%d", s.cfg.Server.MaxCustomers)
	}

	now := r.URL.Query().Get("now")
	if now == "" {
		now = s.defaultNow()
	}

	cfg := *s.cfg
	g := &cfg.Generate
	// Every table keeps at least one row so the scaled config stays valid
	scale := func(n int) int {
		if base.NumCustomers <= 0 {
			return 1
		}
		return max(1, int(int64(n)*int64(customers)/int64(base.NumCustomers)))
	}
	g.Seed = seed
	g.Now = now
	g.NumCustomers = customers
	g.NumAccounts = scale(base.NumAccounts)
	g.NumLoans = scale(base.NumLoans)
	g.NumTransactions = scale(base.NumTransactions)
	g.NumInquiries = scale(base.NumInquiries)
	g.NumTradelines = scale(base.NumTradelines)
	return &cfg, cacheKey{seed: seed, customers: customers, now: now}, nil
}

// defaultNow pins the reference date to the configured value, or to today,
// so repeated requests describe the same portfolio.
func (s *Server) defaultNow() string {
	if s.cfg.Generate.Now != "" {
		return s.cfg.Generate.Now
	}
	return models.FormatDate(time.Now())
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
