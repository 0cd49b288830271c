package alphabet

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Alphabet maps symbol ids to labels and back. The blank symbol is not part
// of the label list; it always occupies the last class index, so a model
// emitting over this alphabet has Size()+1 output classes.
type Alphabet struct {
	labels       []string
	labelToIndex map[string]int
	spaceID      int
}

// New builds an alphabet from a list of labels. Labels are NFC-normalized;
// duplicates keep the first occurrence.
func New(labels []string) (*Alphabet, error) {
	if len(labels) == 0 {
		return nil, errors.New("alphabet cannot be empty")
	}
	a := &Alphabet{
		labels:       make([]string, 0, len(labels)),
		labelToIndex: make(map[string]int, len(labels)),
		spaceID:      -1,
	}
	for _, l := range labels {
		l = norm.NFC.String(l)
		if _, ok := a.labelToIndex[l]; ok {
			continue
		}
		id := len(a.labels)
		a.labels = append(a.labels, l)
		a.labelToIndex[l] = id
		if l == " " {
			a.spaceID = id
		}
	}
	return a, nil
}

// Load reads an alphabet file with one label per line. Lines starting with
// '#' are comments; a line holding a single space declares the space symbol.
// Only line endings are stripped, so whitespace labels survive.
func Load(path string) (*Alphabet, error) {
	if path == "" {
		return nil, errors.New("alphabet path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: opening a user-provided alphabet file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open alphabet: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing alphabet file: %v\n", err)
		}
	}()

	scanner := bufio.NewScanner(f)
	labels := make([]string, 0, 64)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading alphabet: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("alphabet is empty: %s", path)
	}
	return New(labels)
}

// Size returns the number of labels, excluding the blank symbol.
func (a *Alphabet) Size() int { return len(a.labels) }

// ClassCount returns the number of model output classes (labels plus blank).
func (a *Alphabet) ClassCount() int { return len(a.labels) + 1 }

// BlankID returns the class index reserved for the CTC blank symbol.
func (a *Alphabet) BlankID() int { return len(a.labels) }

// SpaceID returns the id of the word-boundary symbol, or -1 if the alphabet
// has none.
func (a *Alphabet) SpaceID() int { return a.spaceID }

// IsSpace reports whether id denotes the word-boundary symbol.
func (a *Alphabet) IsSpace(id int) bool { return a.spaceID >= 0 && id == a.spaceID }

// Label returns the label for a symbol id, or empty string if out of range.
func (a *Alphabet) Label(id int) string {
	if id < 0 || id >= len(a.labels) {
		return ""
	}
	return a.labels[id]
}

// Index returns the symbol id for a label, or -1 if not present.
func (a *Alphabet) Index(label string) int {
	if a == nil {
		return -1
	}
	if id, ok := a.labelToIndex[norm.NFC.String(label)]; ok {
		return id
	}
	return -1
}

// Decode joins the labels of a token sequence into text. Unknown ids are
// skipped.
func (a *Alphabet) Decode(tokens []int) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(a.Label(t))
	}
	return sb.String()
}
