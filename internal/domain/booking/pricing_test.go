package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

func TestDailyRatePricing_Quote(t *testing.T) {
	pricing := NewDailyRatePricing()

	t.Run("whole days", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)

		quote, err := pricing.Quote(start, end, 5000)
		require.NoError(t, err)
		assert.Equal(t, 3, quote.TotalDays)
		assert.Equal(t, int64(15000), quote.TotalAmountCents)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
		end := time.Date(2024, 6, 2, 11, 0, 0, 0, time.UTC)

		quote, err := pricing.Quote(start, end, 5000)
		require.NoError(t, err)
		assert.Equal(t, 2, quote.TotalDays)
		assert.Equal(t, int64(10000), quote.TotalAmountCents)
	})

	t.Run("single day", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(24 * time.Hour)

		quote, err := pricing.Quote(start, end, 7500)
		require.NoError(t, err)
		assert.Equal(t, 1, quote.TotalDays)
		assert.Equal(t, int64(7500), quote.TotalAmountCents)
	})

	t.Run("end before start rejected", func(t *testing.T) {
		start := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

		_, err := pricing.Quote(start, end, 5000)
		require.Error(t, err)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("zero price rejected", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

		_, err := pricing.Quote(start, end, 0)
		require.Error(t, err)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})
}
