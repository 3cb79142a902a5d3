package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateForIndexing(t *testing.T) {
	vec := make([]float32, 4)

	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     &Document{ID: "2301.00001", Vector: vec},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "empty id",
			doc:     &Document{Vector: vec},
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "missing vector",
			doc:     &Document{ID: "2301.00002"},
			wantErr: ErrMissingVector,
		},
		{
			name:    "wrong dimension",
			doc:     &Document{ID: "2301.00003", Vector: make([]float32, 3)},
			wantErr: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.ValidateForIndexing(4)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
