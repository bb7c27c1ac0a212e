package journals

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidateLines(t *testing.T) {
	cases := []struct {
		name  string
		lines []LineInput
		want  error
	}{
		{name: "empty", want: shared.ErrNoLines},
		{
			name: "balanced",
			lines: []LineInput{
				{AccountID: 1, Debit: dec("100.00")},
				{AccountID: 2, Credit: dec("60.00")},
				{AccountID: 3, Credit: dec("40.00")},
			},
		},
		{
			name: "off by a cent",
			lines: []LineInput{
				{AccountID: 1, Debit: dec("100.00")},
				{AccountID: 2, Credit: dec("99.99")},
			},
			want: shared.ErrUnbalanced,
		},
		{
			name: "both sides on one line",
			lines: []LineInput{
				{AccountID: 1, Debit: dec("10"), Credit: dec("10")},
			},
			want: shared.ErrInvalidLine,
		},
		{
			name: "zero line",
			lines: []LineInput{
				{AccountID: 1},
			},
			want: shared.ErrInvalidLine,
		},
		{
			name: "negative",
			lines: []LineInput{
				{AccountID: 1, Debit: dec("-5")},
				{AccountID: 2, Credit: dec("-5")},
			},
			want: shared.ErrInvalidLine,
		},
		{
			name: "sub-cent precision",
			lines: []LineInput{
				{AccountID: 1, Debit: dec("0.005")},
				{AccountID: 2, Credit: dec("0.005")},
			},
			want: shared.ErrInvalidLine,
		},
		{
			name: "missing account",
			lines: []LineInput{
				{Debit: dec("1")},
				{AccountID: 2, Credit: dec("1")},
			},
			want: shared.ErrInvalidLine,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLines(tc.lines)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReverseLinesSwapsSides(t *testing.T) {
	out := ReverseLines([]JournalLine{
		{AccountID: 1, Debit: dec("25.50")},
		{AccountID: 2, Credit: dec("25.50"), Description: "fee"},
	})
	require.Len(t, out, 2)
	require.True(t, out[0].Credit.Equal(dec("25.50")))
	require.True(t, out[0].Debit.IsZero())
	require.True(t, out[1].Debit.Equal(dec("25.50")))
	require.Equal(t, "fee", out[1].Description)
	require.NoError(t, ValidateLines(out))
}

func TestTransitionsPostedIsTerminal(t *testing.T) {
	require.True(t, transitions.Allows(StatusDraft, StatusPosted))
	require.True(t, transitions.Terminal(StatusPosted))
	require.ErrorIs(t, transitions.Check(StatusPosted, StatusDraft), shared.ErrInvalidStatus)
}
