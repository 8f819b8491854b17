package service

import (
	"testing"

	"polar-billing-bridge/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestResolveTransactionRef(t *testing.T) {
	tests := []struct {
		name    string
		payload model.EventPayload
		want    string
	}{
		{
			name:    "top-level reference_id wins",
			payload: model.EventPayload{ReferenceID: "tx-top", Metadata: map[string]any{"reference_id": "tx-meta"}},
			want:    "tx-top",
		},
		{
			name:    "external_reference before metadata",
			payload: model.EventPayload{ExternalReference: "tx-ext", Metadata: map[string]any{"referenceId": "tx-meta"}},
			want:    "tx-ext",
		},
		{
			name:    "metadata snake_case",
			payload: model.EventPayload{Metadata: map[string]any{"reference_id": "tx-1"}},
			want:    "tx-1",
		},
		{
			name:    "metadata camelCase",
			payload: model.EventPayload{Metadata: map[string]any{"referenceId": "tx-2"}},
			want:    "tx-2",
		},
		{
			name:    "metadata transactionId",
			payload: model.EventPayload{Metadata: map[string]any{"transactionId": "tx-3"}},
			want:    "tx-3",
		},
		{
			name:    "alias order within metadata",
			payload: model.EventPayload{Metadata: map[string]any{"transactionId": "tx-later", "reference_id": "tx-first"}},
			want:    "tx-first",
		},
		{
			name:    "empty values skipped",
			payload: model.EventPayload{Metadata: map[string]any{"reference_id": "", "transactionId": "tx-4"}},
			want:    "tx-4",
		},
		{
			name:    "non-string values skipped",
			payload: model.EventPayload{Metadata: map[string]any{"reference_id": 42, "referenceId": "tx-5"}},
			want:    "tx-5",
		},
		{
			name:    "unresolvable",
			payload: model.EventPayload{Metadata: map[string]any{"something_else": "x"}},
			want:    "",
		},
		{
			name:    "nil metadata",
			payload: model.EventPayload{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTransactionRef(&tt.payload))
		})
	}
}

func TestResolveBusinessRef(t *testing.T) {
	payload := model.EventPayload{Metadata: map[string]any{"business_id": "biz-snake", "businessId": "biz-camel"}}
	assert.Equal(t, "biz-camel", ResolveBusinessRef(&payload))

	// independent of the transaction reference
	payload = model.EventPayload{ReferenceID: "tx-1"}
	assert.Equal(t, "", ResolveBusinessRef(&payload))

	payload = model.EventPayload{Metadata: map[string]any{"business_id": "biz-1"}}
	assert.Equal(t, "biz-1", ResolveBusinessRef(&payload))
}
