package checkpoint_test

import (
	"testing"

	"github.com/randalmurphal/ftharness/pkg/ftharness/checkpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_MarshalText(t *testing.T) {
	data, err := checkpoint.Record{Value: 3, NextStage: 3}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "3 3\n", string(data))

	data, err = checkpoint.Record{Value: -12, NextStage: 1}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "-12 1\n", string(data))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    checkpoint.Record
		wantErr error
	}{
		{"canonical", "3 3\n", checkpoint.Record{Value: 3, NextStage: 3}, nil},
		{"no trailing newline", "6 4", checkpoint.Record{Value: 6, NextStage: 4}, nil},
		{"tab separated", "6\t4\n", checkpoint.Record{Value: 6, NextStage: 4}, nil},
		{"extra whitespace", "   10    2   \n", checkpoint.Record{Value: 10, NextStage: 2}, nil},
		{"extra fields ignored", "1 2 trailing\n", checkpoint.Record{Value: 1, NextStage: 2}, nil},
		{"negative value", "-5 1", checkpoint.Record{Value: -5, NextStage: 1}, nil},
		{"only first line read", "1 2\n9 9\n", checkpoint.Record{Value: 1, NextStage: 2}, nil},
		{"empty", "", checkpoint.Record{}, checkpoint.ErrNotFound},
		{"whitespace only", "  \n\t\n", checkpoint.Record{}, checkpoint.ErrNotFound},
		{"one field", "3\n", checkpoint.Record{}, checkpoint.ErrCorruptRecord},
		{"blank first line", "\n3 3\n", checkpoint.Record{}, checkpoint.ErrCorruptRecord},
		{"non-integer value", "abc 2", checkpoint.Record{}, checkpoint.ErrCorruptRecord},
		{"non-integer stage", "3 x", checkpoint.Record{}, checkpoint.ErrCorruptRecord},
		{"float value", "3.5 2", checkpoint.Record{}, checkpoint.ErrCorruptRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkpoint.Parse([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_String(t *testing.T) {
	assert.Equal(t, "42 2", checkpoint.Record{Value: 42, NextStage: 2}.String())
}
