package evaluate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

func TestConfidenceScorer_ParsesAndClampsResponse(t *testing.T) {
	caller := ModelCaller{Client: &fakeLLMClient{texts: []string{`{"confidence": 1.5}`}}, Model: "m"}
	s := NewConfidenceScorer(caller)

	confidence, err := s.ScoreConfidence(context.Background(), "log-1", &model.Plan{}, &model.Phase{}, "answer", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, confidence)
}

func TestConfidenceScorer_RejectsMalformedResponse(t *testing.T) {
	caller := ModelCaller{Client: &fakeLLMClient{texts: []string{"not json"}}, Model: "m"}
	s := NewConfidenceScorer(caller)

	_, err := s.ScoreConfidence(context.Background(), "log-1", &model.Plan{}, &model.Phase{}, "answer", nil)
	require.Error(t, err)
}

func TestReflector_ReturnsRevisedText(t *testing.T) {
	caller := ModelCaller{Client: &fakeLLMClient{texts: []string{"a much better answer"}}, Model: "m"}
	r := NewReflector(caller)

	revised, err := r.Reflect(context.Background(), "log-1", &model.Plan{}, &model.Phase{}, "original", nil, 0.2)
	require.NoError(t, err)
	assert.Equal(t, "a much better answer", revised)
}
