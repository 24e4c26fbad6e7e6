package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fxhub/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWriter struct{ mock.Mock }

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error { return m.Called().Error(0) }

func TestHistoryPublisher_Publish(t *testing.T) {
	ts := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	rec := domain.HistoryRecord{
		ID:           domain.HistoryID(domain.RatePair{From: "BTC", To: "USD"}, ts),
		FromCurrency: "BTC",
		ToCurrency:   "USD",
		Rate:         65000,
		Timestamp:    ts,
		Source:       "CoinGecko",
	}

	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "BTC_USD" || !msgs[0].Time.Equal(ts) {
			return false
		}
		var got domain.HistoryRecord
		return json.Unmarshal(msgs[0].Value, &got) == nil && got.ID == rec.ID
	})).Return(nil).Once()

	p := &HistoryPublisher{writer: w}
	require.NoError(t, p.Publish(context.Background(), []domain.HistoryRecord{rec}))
	w.AssertExpectations(t)
}

func TestHistoryPublisher_EmptyBatchSkipsWrite(t *testing.T) {
	w := new(MockWriter)
	p := &HistoryPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), nil))
	w.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestHistoryPublisher_WriteError(t *testing.T) {
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	p := &HistoryPublisher{writer: w}

	err := p.Publish(context.Background(), []domain.HistoryRecord{{ID: "x", FromCurrency: "A", ToCurrency: "B"}})
	require.ErrorContains(t, err, "broker down")
}
