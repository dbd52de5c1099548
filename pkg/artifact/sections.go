package artifact

import (
	"bufio"
	"io"
	"strings"
)

// Section labels. The crash handler writes them and Parse recognises them.
const (
	HeaderLabel       = "Program: "
	SignalLabel       = "Dump caused by signal: "
	LogSection        = "Log message history:\n"
	BacktraceSection  = "Go raw backtrace:\n"
	NoBacktraceNote   = "Raw backtrace not available, no raw backtrace dumped\n\n"
	GoroutineSection  = "Goroutine dump:\n"
	GDBSection        = "GDB extended backtrace:\n"
	DelveSection      = "Delve extended backtrace:\n"
	NoExtendedSection = "No extended backtrace dumped:\n"
)

// Kind identifies a section of an artifact.
type Kind string

const (
	KindHeader     Kind = "header"
	KindSignal     Kind = "signal"
	KindLog        Kind = "log"
	KindBacktrace  Kind = "backtrace"
	KindGoroutines Kind = "goroutines"
	KindExtended   Kind = "extended"
	KindUnknown    Kind = "unknown"
)

// Section is one labelled block of an artifact.
type Section struct {
	Kind  Kind
	Title string
	Body  string
}

var sectionLines = map[string]Kind{
	strings.TrimSuffix(LogSection, "\n"):        KindLog,
	strings.TrimSuffix(BacktraceSection, "\n"):  KindBacktrace,
	strings.TrimSuffix(NoBacktraceNote, "\n\n"): KindBacktrace,
	strings.TrimSuffix(GoroutineSection, "\n"):  KindGoroutines,
	strings.TrimSuffix(GDBSection, "\n"):        KindExtended,
	strings.TrimSuffix(DelveSection, "\n"):      KindExtended,
	strings.TrimSuffix(NoExtendedSection, "\n"): KindExtended,
}

// maxScanLine bounds a single line; disassembly and goroutine dumps can be wide.
const maxScanLine = 1 << 20

// Parse splits an artifact into its sections, in file order. Text before the
// first recognised label is returned as a KindUnknown section.
func Parse(r io.Reader) ([]Section, error) {
	var (
		sections []Section
		cur      *Section
		body     strings.Builder
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.TrimRight(body.String(), "\n")
		sections = append(sections, *cur)
		body.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanLine)
	for scanner.Scan() {
		line := scanner.Text()
		kind, ok := classifyLine(line, len(sections) == 0 && cur == nil)
		if ok {
			flush()
			cur = &Section{Kind: kind, Title: line}
			if kind == KindHeader {
				// The first header line carries data; keep it in the body too.
				body.WriteString(line)
				body.WriteByte('\n')
			}
			continue
		}
		if cur == nil {
			cur = &Section{Kind: KindUnknown}
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()

	if err := scanner.Err(); err != nil {
		return sections, err
	}
	return sections, nil
}

func classifyLine(line string, first bool) (Kind, bool) {
	if first && strings.HasPrefix(line, HeaderLabel) {
		return KindHeader, true
	}
	if strings.HasPrefix(line, SignalLabel) {
		return KindSignal, true
	}
	kind, ok := sectionLines[line]
	return kind, ok
}

// Find returns the first section of the given kind.
func Find(sections []Section, kind Kind) (Section, bool) {
	for _, s := range sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

// SignalDescription extracts the fault description from the signal section.
func SignalDescription(sections []Section) string {
	s, ok := Find(sections, KindSignal)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(s.Title, SignalLabel)
}
