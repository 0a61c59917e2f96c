package matrix

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// naTokens are cell contents read as missing, matching the default NA
// markers of common dataframe tools.
var naTokens = make(map[string]bool)

func init() {
	for _, tok := range []string{
		"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan",
		"NULL", "null", "None", "<NA>", "#N/A", "#NA", "#N/A N/A",
		"1.#IND", "-1.#IND", "1.#QNAN", "-1.#QNAN",
	} {
		naTokens[tok] = true
	}
}

// Read parses a tab-separated matrix file. Gzipped files are detected by
// their magic bytes.
func Read(path string) (*Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer file.Close()

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read matrix header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek matrix file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		return ReadFrom(gz)
	}
	return ReadFrom(file)
}

// ReadFrom parses a tab-separated matrix. The first non-empty line is the
// header: its first cell labels the index and is ignored, the rest are sample
// IDs. Each following line holds a row ID and one value per sample. Short rows
// are padded with missing cells.
func ReadFrom(r io.Reader) (*Matrix, error) {
	reader := bufio.NewReader(r)
	lineNumber := 0

	var samples []string
	m := &Matrix{index: make(map[string]int)}
	headerSeen := false

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read matrix line: %w", err)
		}
		if line == "" && err == io.EOF {
			break
		}
		lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			fields := strings.Split(line, "\t")
			if !headerSeen {
				samples = fields[1:]
				m.samples = samples
				headerSeen = true
			} else if perr := m.appendRow(fields, lineNumber); perr != nil {
				return nil, perr
			}
		}

		if err == io.EOF {
			break
		}
	}

	if !headerSeen {
		return nil, &ParseError{Line: lineNumber, Message: "no header line found"}
	}
	return m, nil
}

// appendRow parses one data line into the matrix.
func (m *Matrix) appendRow(fields []string, lineNumber int) error {
	id := strings.TrimSpace(fields[0])
	if id == "" {
		return &ParseError{Line: lineNumber, Message: "empty row ID"}
	}
	if _, dup := m.index[id]; dup {
		return &ParseError{Line: lineNumber, Message: fmt.Sprintf("duplicate row ID %q", id)}
	}
	values := fields[1:]
	if len(values) > len(m.samples) {
		return &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("expected at most %d values, found %d", len(m.samples), len(values)),
		}
	}

	row := make([]Cell, len(m.samples))
	for j, raw := range values {
		s := strings.TrimSpace(raw)
		if naTokens[s] {
			row[j] = NA()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("invalid value %q for sample %q", raw, m.samples[j]),
			}
		}
		row[j] = Value(v)
	}
	// Cells past the end of a short row stay zero-valued, which is Missing.

	m.index[id] = len(m.ids)
	m.ids = append(m.ids, id)
	m.rows = append(m.rows, row)
	return nil
}

// Load reads the matrix at path and applies Filter.
func Load(path string, nullFraction float64, restrict GeneSet) (*Matrix, error) {
	m, err := Read(path)
	if err != nil {
		return nil, err
	}
	return m.Filter(nullFraction, restrict)
}

// ParseError represents an error parsing a matrix file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("matrix parse error at line %d: %s", e.Line, e.Message)
}
