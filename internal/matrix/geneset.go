package matrix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// GeneSet is a set of row IDs used to restrict a matrix.
type GeneSet map[string]struct{}

// NewGeneSet builds a set from the given IDs.
func NewGeneSet(ids ...string) GeneSet {
	s := make(GeneSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s GeneSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the IDs in lexical order.
func (s GeneSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadGeneSet reads a gene list file. Every tab-separated token on every line
// is added to the set.
func LoadGeneSet(path string) (GeneSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene set file: %w", err)
	}
	defer f.Close()

	return parseGeneSet(f)
}

// parseGeneSet parses the gene list content.
func parseGeneSet(reader io.Reader) (GeneSet, error) {
	set := make(GeneSet)
	br := bufio.NewReader(reader)

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read gene set: %w", err)
		}

		for _, tok := range strings.Split(strings.TrimSpace(line), "\t") {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				set[tok] = struct{}{}
			}
		}

		if err == io.EOF {
			break
		}
	}

	return set, nil
}
