package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchResult_InvalidTokens(t *testing.T) {
	t.Parallel()
	res := BatchResult{
		SuccessCount: 1,
		FailureCount: 5,
		Failures: []TokenFailure{
			{Index: 1, Token: "b", Code: PushCodeTokenNotRegistered},
			{Index: 2, Token: "c", Code: PushCodeInvalidToken},
			{Index: 3, Token: "d", Code: PushCodeInvalidArgument},
			{Index: 4, Token: "e", Code: PushCodeUnavailable},
			{Index: 5, Token: "f", Code: PushCodeUnknown},
		},
	}
	assert.Equal(t, []string{"b", "c"}, res.InvalidTokens())

	merged := BatchResult{SuccessCount: 2}.Merge(res, 500)
	assert.Equal(t, 3, merged.SuccessCount)
	assert.Equal(t, 5, merged.FailureCount)
	assert.Equal(t, 501, merged.Failures[0].Index)
}
