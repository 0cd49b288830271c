package scorer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// loadARPA reads a language model in ARPA text format. ARPA log
// probabilities are base-10; they are converted to natural log so the whole
// decode path shares one log domain.
func loadARPA(r io.Reader) (*ngramModel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// skip to the \data\ header
	found := false
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "\\data\\" {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("missing \\data\\ section")
	}

	model := newNGramModel(1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ngram ") {
			parts := strings.SplitN(line[6:], "=", 2)
			if len(parts) == 2 {
				if order, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil && order > model.order {
					model.order = order
				}
			}
			continue
		}
		break
	}
	if model.order > 3 {
		return nil, fmt.Errorf("unsupported n-gram order %d (max 3)", model.order)
	}

	for {
		line := strings.TrimSpace(scanner.Text())
		if line == "\\end\\" {
			break
		}
		if strings.HasPrefix(line, "\\") && strings.HasSuffix(line, "-grams:") {
			orderStr := strings.TrimSuffix(strings.TrimPrefix(line, "\\"), "-grams:")
			order, err := strconv.Atoi(orderStr)
			if err != nil {
				if !scanner.Scan() {
					break
				}
				continue
			}
			sectionDone := false
			for scanner.Scan() {
				entry := strings.TrimSpace(scanner.Text())
				if entry == "" {
					continue
				}
				if strings.HasPrefix(entry, "\\") {
					sectionDone = true
					break
				}
				if err := parseNGramLine(model, order, entry); err != nil {
					return nil, fmt.Errorf("parse n-gram line %q: %w", entry, err)
				}
			}
			if sectionDone {
				continue
			}
		}
		if !scanner.Scan() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(model.unigrams) == 0 {
		return nil, fmt.Errorf("model has no unigrams")
	}
	return model, nil
}

func parseNGramLine(model *ngramModel, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 {
		return fmt.Errorf("too few fields for %d-gram", order)
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("parse log prob: %w", err)
	}
	logProb *= math.Ln10

	tokens := fields[1 : order+1]

	var logBackoff float64
	if len(fields) > order+1 {
		bo, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return fmt.Errorf("parse backoff: %w", err)
		}
		logBackoff = bo * math.Ln10
	}

	entry := ngramEntry{logProb: logProb, logBackoff: logBackoff}
	switch order {
	case 1:
		model.unigrams[tokens[0]] = entry
	case 2:
		model.bigrams[[2]string{tokens[0], tokens[1]}] = entry
	case 3:
		model.trigrams[[3]string{tokens[0], tokens[1], tokens[2]}] = entry
	}
	return nil
}
