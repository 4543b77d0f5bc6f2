package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
)

func TestTotal_ThreeNights(t *testing.T) {
	in, err := model.ParseDate("2024-03-01")
	require.NoError(t, err)
	out, err := model.ParseDate("2024-03-04")
	require.NoError(t, err)

	total, err := Total(10000, in, out)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), total)

	total, err = Total(10000, out, in)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestTotal_Bounds(t *testing.T) {
	in, err := model.ParseDate("2024-01-01")
	require.NoError(t, err)
	out, err := model.ParseDate("2024-12-31")
	require.NoError(t, err)

	_, err = Total(9_000_000_000_000_000, in, out)
	assert.ErrorIs(t, err, ErrTotalOutOfRange)

	_, err = Total(MaxCents, in, out)
	assert.ErrorIs(t, err, ErrTotalOutOfRange)

	_, err = Total(-1, in, out)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// 365 nights at the largest price that still fits.
	perNight := MaxCents / 365
	total, err := Total(perNight, in, out)
	require.NoError(t, err)
	assert.Equal(t, perNight*365, total)
	assert.LessOrEqual(t, total, MaxCents)

	single, err := Total(MaxCents, in, in.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, MaxCents, single)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "300.00", FormatCents(30000))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-1.50", FormatCents(-150))
}

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"100", 10000, true},
		{"100.5", 10050, true},
		{"100.05", 10005, true},
		{" 0.99 ", 99, true},
		{"", 0, false},
		{"-1", 0, false},
		{"1.234", 0, false},
		{"1.", 0, false},
		{".5", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"99999999.99", 9_999_999_999, true},
		{"00000000099999999.99", 9_999_999_999, true},
		{"100000000", 0, false},
		{"922337203685477581", 0, false},
		{"92233720368547758070", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCents(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
