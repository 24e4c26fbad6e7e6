package trade

import (
	"context"
	"time"

	"fxhub/internal/domain"

	"github.com/sirupsen/logrus"
)

// loggingService decorates a Service with an audit line per trade.
type loggingService struct {
	next   Service
	logger logrus.FieldLogger
}

func WithActionLog(logger logrus.FieldLogger, next Service) Service {
	return &loggingService{next: next, logger: logger}
}

func (s *loggingService) Buy(ctx context.Context, user, code string, amount float64) (res Result, err error) {
	defer func(begin time.Time) { s.logAction(ActionBuy, user, code, amount, res, err, time.Since(begin)) }(time.Now())
	return s.next.Buy(ctx, user, code, amount)
}

func (s *loggingService) Sell(ctx context.Context, user, code string, amount float64) (res Result, err error) {
	defer func(begin time.Time) { s.logAction(ActionSell, user, code, amount, res, err, time.Since(begin)) }(time.Now())
	return s.next.Sell(ctx, user, code, amount)
}

func (s *loggingService) Portfolio(ctx context.Context, user, base string) (domain.Valuation, error) {
	return s.next.Portfolio(ctx, user, base)
}

func (s *loggingService) logAction(action, user, code string, amount float64, res Result, err error, took time.Duration) {
	fields := logrus.Fields{
		"action":   action,
		"user":     user,
		"currency": code,
		"amount":   amount,
		"took":     took,
	}
	if err != nil {
		fields["result"] = "ERROR"
		s.logger.WithFields(fields).WithError(err).Error("trade action")
		return
	}

	fields["result"] = "OK"
	fields["balance_before"] = res.BalanceBefore
	fields["balance_after"] = res.BalanceAfter
	fields["base"] = res.Base
	if res.Rate != nil {
		fields["rate"] = *res.Rate
	}
	if res.EstimatedValue != nil {
		fields["estimated_value"] = *res.EstimatedValue
	}
	s.logger.WithFields(fields).Info("trade action")
}
