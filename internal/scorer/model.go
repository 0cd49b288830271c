package scorer

const (
	sentenceStart = "<s>"
	unknownToken  = "<unk>"
)

// ngramModel is a backoff n-gram model up to trigram order.
type ngramModel struct {
	order    int
	unigrams map[string]ngramEntry
	bigrams  map[[2]string]ngramEntry
	trigrams map[[3]string]ngramEntry
}

type ngramEntry struct {
	logProb    float64
	logBackoff float64
}

func newNGramModel(order int) *ngramModel {
	return &ngramModel{
		order:    order,
		unigrams: make(map[string]ngramEntry),
		bigrams:  make(map[[2]string]ngramEntry),
		trigrams: make(map[[3]string]ngramEntry),
	}
}

// LogProb returns the natural-log probability of token given its history,
// backing off to lower orders when the exact n-gram is absent.
func (m *ngramModel) LogProb(history []string, token string) float64 {
	if m.order >= 3 && len(history) >= 2 {
		key := [3]string{history[len(history)-2], history[len(history)-1], token}
		if e, ok := m.trigrams[key]; ok {
			return e.logProb
		}
		biKey := [2]string{history[len(history)-2], history[len(history)-1]}
		if e, ok := m.bigrams[biKey]; ok {
			return e.logBackoff + m.logProbBigram(history[len(history)-1], token)
		}
	}
	if m.order >= 2 && len(history) >= 1 {
		return m.logProbBigram(history[len(history)-1], token)
	}
	return m.logProbUnigram(token)
}

func (m *ngramModel) logProbBigram(prev, token string) float64 {
	key := [2]string{prev, token}
	if e, ok := m.bigrams[key]; ok {
		return e.logProb
	}
	if e, ok := m.unigrams[prev]; ok {
		return e.logBackoff + m.logProbUnigram(token)
	}
	return m.logProbUnigram(token)
}

func (m *ngramModel) logProbUnigram(token string) float64 {
	if e, ok := m.unigrams[token]; ok {
		return e.logProb
	}
	if e, ok := m.unigrams[unknownToken]; ok {
		return e.logProb
	}
	return logProbFloor
}
