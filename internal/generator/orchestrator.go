package generator

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/willfong/portfolio-generator/internal/config"
	"github.com/willfong/portfolio-generator/internal/consistency"
	"github.com/willfong/portfolio-generator/internal/data"
	"github.com/willfong/portfolio-generator/internal/models"
	"github.com/willfong/portfolio-generator/internal/utils"
)

// Stage names, in run order
const (
	StageCustomers = "customers"
	StageAccounts  = "accounts+bureau"
	StageLoans     = "loans"
	StageActivity  = "transactions+schedules+collateral"
	StageCheck     = "consistency"
)

// Orchestrator coordinates all factories for one portfolio.
type Orchestrator struct {
	rng     *utils.Random
	env     Env
	config  config.GenerateConfig
	checker *consistency.Checker
	logger  *slog.Logger
	onStage func(StageResult)
}

// OrchestratorOptions holds optional settings for the orchestrator
type OrchestratorOptions struct {
	Logger *slog.Logger
	// OnStage is called after every stage completes
	OnStage func(StageResult)
}

// StageResult describes one completed stage
type StageResult struct {
	Name     string
	Records  int
	Duration time.Duration
}

// GenerationResult holds the portfolio and statistics from the generation run
type GenerationResult struct {
	Portfolio *models.Portfolio
	// Counts holds the rows per table, set before the consistency check
	Counts   map[string]int
	Stages   []StageResult
	Workers  int
	Duration time.Duration
}

// NewOrchestrator validates cfg and prepares a run. A zero seed is replaced by
// a random one, which the portfolio reports so the run can be repeated.
func NewOrchestrator(cfg *config.Config, opts OrchestratorOptions) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	refData, err := data.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	now, err := cfg.Generate.ReferenceTime()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Risk.Policy()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Orchestrator{
		rng: utils.NewRandom(cfg.Generate.Seed),
		env: Env{
			Now:         now,
			Currency:    cfg.Generate.Currency,
			Nationality: cfg.Generate.Nationality,
			RefData:     refData,
			Policy:      policy,
		},
		config:  cfg.Generate,
		checker: consistency.NewChecker(policy),
		logger:  logger,
		onStage: opts.OnStage,
	}, nil
}

// Seed returns the effective seed of the run
func (o *Orchestrator) Seed() uint64 {
	return o.rng.Seed()
}

// Run generates every table, checks the result and returns it. The portfolio
// is never returned when the context is cancelled or a check fails; after a
// failed check the result still carries Counts and Stages for reporting.
func (o *Orchestrator) Run(ctx context.Context) (*GenerationResult, error) {
	startTime := time.Now()
	workers := GetWorkerCount(o.config.NumWorkers)
	result := &GenerationResult{Workers: workers}
	p := &models.Portfolio{
		Seed:     o.rng.Seed(),
		Now:      o.env.Now,
		Currency: o.env.Currency,
	}
	o.logger.Info("generation started",
		slog.Uint64("seed", p.Seed),
		slog.Time("now", p.Now),
		slog.Int("workers", workers))

	stage := func(name string, fn func() error, records func() int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := time.Now()
		if err := fn(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		sr := StageResult{Name: name, Records: records(), Duration: time.Since(t)}
		result.Stages = append(result.Stages, sr)
		o.logger.Info("stage complete",
			slog.String("stage", name),
			slog.Int("records", sr.Records),
			slog.Duration("duration", sr.Duration))
		if o.onStage != nil {
			o.onStage(sr)
		}
		return nil
	}

	// 1. Customers
	err := stage(StageCustomers, func() (err error) {
		f := NewCustomerFactory(o.rng, o.env, CustomerFactoryConfig{
			NumCustomers: o.config.NumCustomers,
			ScoreAlpha:   o.config.CreditScoreAlpha,
			ScoreBeta:    o.config.CreditScoreBeta,
		})
		p.Customers, err = collect(ctx, f.Generate())
		return err
	}, func() int { return len(p.Customers) })
	if err != nil {
		return nil, err
	}
	customers := NewCustomerIndex(p.Customers)

	// 2. Accounts and bureau records only need customers
	err = stage(StageAccounts, func() error {
		bureau := NewBureauFactory(o.rng, o.env, customers, BureauFactoryConfig{
			NumInquiries:  o.config.NumInquiries,
			NumTradelines: o.config.NumTradelines,
		})
		return utils.RunParallel(ctx,
			utils.ParallelTask{Name: models.TableAccounts, Fn: func(ctx context.Context) (err error) {
				f := NewAccountFactory(o.rng, o.env, customers, AccountFactoryConfig{NumAccounts: o.config.NumAccounts})
				p.Accounts, err = collect(ctx, f.Generate())
				return err
			}},
			utils.ParallelTask{Name: models.TableCreditScores, Fn: func(ctx context.Context) (err error) {
				p.CreditScores, err = collect(ctx, bureau.CreditScores())
				return err
			}},
			utils.ParallelTask{Name: models.TableCreditInquiries, Fn: func(ctx context.Context) (err error) {
				p.Inquiries, err = collect(ctx, bureau.Inquiries())
				return err
			}},
			utils.ParallelTask{Name: models.TableTradelines, Fn: func(ctx context.Context) (err error) {
				p.Tradelines, err = collect(ctx, bureau.Tradelines())
				return err
			}},
		)
	}, func() int { return len(p.Accounts) + len(p.CreditScores) + len(p.Inquiries) + len(p.Tradelines) })
	if err != nil {
		return nil, err
	}
	accounts := NewAccountIndex(p.Accounts)

	// 3. Loans reference an account
	err = stage(StageLoans, func() (err error) {
		f := NewLoanFactory(o.rng, o.env, customers, accounts, LoanFactoryConfig{NumLoans: o.config.NumLoans})
		p.Loans, err = collect(ctx, f.Generate())
		return err
	}, func() int { return len(p.Loans) })
	if err != nil {
		return nil, err
	}
	loans := NewLoanIndex(p.Loans)

	// 4. Everything hanging off accounts and loans
	err = stage(StageActivity, func() error {
		return utils.RunParallel(ctx,
			utils.ParallelTask{Name: models.TableTransactions, Fn: func(ctx context.Context) (err error) {
				f := NewTransactionFactory(o.rng, o.env, customers, accounts, TransactionFactoryConfig{
					NumTransactions: o.config.NumTransactions,
					ChunkSize:       o.config.ChunkSize,
					NumWorkers:      workers,
				})
				p.Transactions, err = collect(ctx, f.Generate())
				return err
			}},
			utils.ParallelTask{Name: models.TablePaymentSchedules, Fn: func(ctx context.Context) (err error) {
				f := NewScheduleFactory(o.rng, o.env, loans, ScheduleFactoryConfig{Lookahead: o.config.ScheduleLookahead})
				p.Schedules, err = collect(ctx, f.Generate())
				return err
			}},
			utils.ParallelTask{Name: models.TableCollateral, Fn: func(ctx context.Context) (err error) {
				p.Collateral, err = collect(ctx, NewCollateralFactory(o.rng, o.env, loans).Generate())
				return err
			}},
		)
	}, func() int { return len(p.Transactions) + len(p.Schedules) + len(p.Collateral) })
	if err != nil {
		return nil, err
	}

	// 5. Nothing leaves the orchestrator unchecked
	result.Counts = p.Counts()
	err = stage(StageCheck, func() error {
		return o.checker.Check(p)
	}, p.TotalRecords)
	if err != nil {
		return result, err
	}

	result.Portfolio = p
	result.Duration = time.Since(startTime)
	o.logger.Info("generation complete",
		slog.Int("records", p.TotalRecords()),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// collect drains seq, checking ctx every few hundred records
func collect[T any](ctx context.Context, seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		if len(out)%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, ctx.Err()
}

// Build runs a full generation for cfg without progress reporting.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*models.Portfolio, error) {
	o, err := NewOrchestrator(cfg, OrchestratorOptions{Logger: logger})
	if err != nil {
		return nil, err
	}
	res, err := o.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Portfolio, nil
}
