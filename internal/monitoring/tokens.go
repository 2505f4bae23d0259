package monitoring

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"github.com/admitpath/coach-gateway/internal/config"
)

// Estimator estimates token counts for usage records. Counts are
// approximate: the BPE vocabulary is not Anthropic's, and when the
// encoding cannot be loaded (offline first run, no cache) it falls
// back to a chars/4 heuristic.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

// NewEstimator loads the cl100k_base encoding, degrading to the
// heuristic on failure.
func NewEstimator() *Estimator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Warn().Err(err).Msg("token encoding unavailable, using char heuristic")
		return &Estimator{}
	}
	return &Estimator{enc: enc}
}

// Estimate returns the approximate token count of text.
func (e *Estimator) Estimate(text string) int {
	if e == nil || e.enc == nil {
		return (len(text) + config.TokenEstimateRatio - 1) / config.TokenEstimateRatio
	}
	return len(e.enc.Encode(text, nil, nil))
}
