package pgdump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/Lumos-Labs-HQ/tclone/internal/ident"
)

// Terminator ends the data section of a COPY block.
const Terminator = `\.`

var copyHeader = regexp.MustCompile(`^COPY .+\((.*)\) FROM stdin;$`)

// Stats describes what a scan walked through.
type Stats struct {
	Blocks       int `json:"blocks" yaml:"blocks"`
	BlocksWithID int `json:"blocks_with_id" yaml:"blocks_with_id"`
	Rows         int `json:"rows" yaml:"rows"`
	Identifiers  int `json:"identifiers" yaml:"identifiers"`
}

// Scanner extracts primary key UUIDs from the COPY blocks of a plain-format
// pg_dump. It keeps only the distinct identifiers, never the dump itself.
type Scanner struct {
	ids     ident.Set
	stats   Stats
	inBlock bool
	idIndex int
}

func NewScanner() *Scanner {
	return &Scanner{ids: ident.NewSet(), idIndex: -1}
}

// ExtractPrimaryKeys scans r and returns the lower-cased `id` column UUIDs.
func ExtractPrimaryKeys(r io.Reader) (ident.Set, error) {
	s := NewScanner()
	if err := s.Scan(r); err != nil {
		return nil, err
	}
	return s.IDs(), nil
}

func ExtractPrimaryKeysFromFile(path string) (ident.Set, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	s := NewScanner()
	if err := s.Scan(f); err != nil {
		return nil, Stats{}, err
	}
	return s.IDs(), s.Stats(), nil
}

// Scan feeds every line of r through the scanner. It may be called more than
// once to continue a document split across readers.
func (s *Scanner) Scan(r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			s.Line(strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read dump: %w", err)
		}
	}
}

// Line processes a single line without its trailing newline.
func (s *Scanner) Line(line string) {
	if m := copyHeader.FindStringSubmatch(line); m != nil {
		s.enterBlock(m[1])
		return
	}

	if line == Terminator {
		s.inBlock = false
		s.idIndex = -1
		return
	}

	if !s.inBlock {
		return
	}
	s.stats.Rows++
	if s.idIndex < 0 {
		return
	}

	fields := strings.Split(line, "\t")
	if s.idIndex >= len(fields) {
		return
	}
	value := strings.TrimRight(fields[s.idIndex], " \t\r\n")
	if ident.IsUUID(value) {
		s.ids.Add(value)
	}
}

func (s *Scanner) enterBlock(columnList string) {
	s.inBlock = true
	s.idIndex = -1
	s.stats.Blocks++

	for i, col := range strings.Split(columnList, ",") {
		if strings.TrimSpace(col) == "id" {
			s.idIndex = i
			s.stats.BlocksWithID++
			break
		}
	}
}

func (s *Scanner) IDs() ident.Set {
	return s.ids
}

func (s *Scanner) Stats() Stats {
	st := s.stats
	st.Identifiers = s.ids.Len()
	return st
}
