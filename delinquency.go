package kolo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kolofinance/kolo/config"
	"github.com/kolofinance/kolo/internal/audit"
	"github.com/kolofinance/kolo/model"
)

var delinquencyTracer = otel.Tracer("kolo.delinquency")

// DelinquencyRunSummary reports the outcome of one daily delinquency batch.
type DelinquencyRunSummary struct {
	RunDate   time.Time     `json:"run_date"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	Message   string        `json:"message,omitempty"`
}

// ProcessAllLoans walks every open, active loan with an outstanding balance
// and recomputes its delinquency state for today.
//
// Authentication failure against the identity service skips the whole run:
// it is fatal for this run, never for the process. Loans already processed
// today are skipped, which makes the batch idempotent within a calendar day.
// A failure on one loan is logged and audited but does not stop the batch;
// every loan is independent.
func (k *Kolo) ProcessAllLoans(ctx context.Context) (*DelinquencyRunSummary, error) {
	ctx, span := delinquencyTracer.Start(ctx, "Processing all loans for delinquency")
	defer span.End()

	started := time.Now()
	today := model.DateOnly(started)
	summary := &DelinquencyRunSummary{RunDate: today}

	token, err := k.identity.Authenticate(ctx)
	if err != nil {
		logrus.Warnf("delinquency run skipped, authentication failed: %v", err)
		k.audit.LogAndAudit(ctx, "", "DelinquencyRun", "system", summary,
			"run skipped: authentication against identity service failed",
			audit.LevelWarning, http.StatusUnauthorized)
		summary.Message = "authentication failed, run skipped"
		return summary, nil
	}

	brackets, err := k.datasource.GetDelinquencyBrackets(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	loans, err := k.datasource.GetOpenLoansWithBalance(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	summary.Total = len(loans)

	for _, loan := range loans {
		if loan.ProcessedOn(today) {
			summary.Skipped++
			continue
		}
		if err := k.processLoan(ctx, token, loan, brackets, today); err != nil {
			logrus.Errorf("delinquency processing failed for loan %s: %v", loan.LoanID, err)
			k.audit.LogAndAudit(ctx, token, "ProcessLoanDelinquency", "system", loan,
				fmt.Sprintf("loan %s failed: %v", loan.LoanID, err),
				audit.LevelError, http.StatusInternalServerError)
			summary.Failed++
			continue
		}
		summary.Processed++
	}

	summary.Duration = time.Since(started)
	span.AddEvent("Delinquency run complete", trace.WithAttributes(
		attribute.Int("loans.total", summary.Total),
		attribute.Int("loans.processed", summary.Processed),
		attribute.Int("loans.failed", summary.Failed)))
	logrus.Infof("delinquency run complete: %d processed, %d skipped, %d failed of %d loans in %s",
		summary.Processed, summary.Skipped, summary.Failed, summary.Total, summary.Duration)
	k.audit.LogAndAudit(ctx, token, "DelinquencyRun", "system", summary,
		"daily delinquency run complete", audit.LevelInfo, http.StatusOK)
	return summary, nil
}

// processLoan recomputes and persists the delinquency state of one loan.
// The classification is always derived fresh from LastRefundDate (or
// LoanDate), never advanced incrementally from the previous state, so a
// skipped day is corrected by the next run.
func (k *Kolo) processLoan(ctx context.Context, token string, loan *model.Loan, brackets []model.DelinquencyBracket, today time.Time) error {
	startDate := loan.LastProcessedDate
	if startDate.IsZero() {
		startDate = loan.LastRefundDate
	}
	if !startDate.IsZero() && !model.DateOnly(startDate).Before(today) {
		// Already current as of today.
		return nil
	}

	// Refresh the agreed duration from the originating application when the
	// origination service has it; amortization follows the application, not
	// the possibly stale copy on the loan.
	app, err := k.loanapp.GetApplication(ctx, token, loan.ApplicationID)
	if err != nil {
		logrus.Warnf("could not refresh application %s for loan %s: %v", loan.ApplicationID, loan.LoanID, err)
	} else if app != nil && app.DurationMonths > 0 {
		loan.DurationMonths = app.DurationMonths
	}

	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	assessment := loan.AssessDelinquency(today, cfg.Delinquency.GraceMonths)
	loan.ApplyAssessment(assessment, today)
	loan.DelinquencyConfig = model.MatchBracket(brackets, loan.DelinquentDays)

	return k.datasource.UpdateLoanDelinquency(ctx, loan)
}
