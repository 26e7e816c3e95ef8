package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input   string
		want    Money
		wantErr bool
	}{
		{input: "12.34", want: 1234},
		{input: "12,34", want: 1234},
		{input: "$5", want: 500},
		{input: "12.345", want: 1235},
		{input: "12.344", want: 1234},
		{input: "0.004", wantErr: true},
		{input: "-3.00", wantErr: true},
		{input: "1,234", want: 123400},
		{input: "1,234.56", want: 123456},
		{input: "12,345,678.9", want: 1234567890},
		{input: "1,5", want: 150},
		{input: ",99", want: 99},
		{input: " $1,000 ", want: 100000},
		{input: "1e3", wantErr: true},
		{input: "1E-2", wantErr: true},
		{input: "1,2345", wantErr: true},
		{input: "12,34.5", wantErr: true},
		{input: "1.234,56", wantErr: true},
		{input: "1,23,456", wantErr: true},
		{input: "+5", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromFloat(t *testing.T) {
	m, err := FromFloat(89.99)
	require.NoError(t, err)
	assert.Equal(t, Money(8999), m)

	_, err = FromFloat(0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "$100.01", Money(10001).String())
	assert.Equal(t, "$0.05", Money(5).String())
	assert.InDelta(t, 42.5, Money(4250).Float(), 1e-9)
}
