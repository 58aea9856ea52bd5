// Package alignment extracts vowel segments from the forced-alignment report
// a speech recognizer writes to its log.
//
// A report looks like:
//
//	=== begin forced alignment ===
//	-- word alignment --
//	...
//	-- phoneme alignment --
//	 id: from  to    n_score    unit
//	 ----------------------------------------
//	[   0   11]  -1.112167  silB
//	[  12   17]  -0.971035  k+o
//	...
//	=== end forced alignment ===
//
// Everything outside a report, and every line of the word and state
// sections, is ignored.
package alignment

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Section identifies which part of a forced-alignment block is being read
type Section int

const (
	SectionNone Section = iota
	SectionWord
	SectionPhoneme
	SectionState
)

func (s Section) String() string {
	switch s {
	case SectionWord:
		return "word"
	case SectionPhoneme:
		return "phoneme"
	case SectionState:
		return "state"
	default:
		return "none"
	}
}

// Report markers written by the recognizer
const (
	BeginMarker   = "=== begin forced alignment ==="
	EndMarker     = "=== end forced alignment ==="
	WordHeader    = "-- word alignment --"
	PhonemeHeader = "-- phoneme alignment --"
	StateHeader   = "-- state alignment --"
)

// [ from to ] score unit
var dataLine = regexp.MustCompile(`^\s*\[\s*(\d+)\s+(\d+)\]\s+[-\d\.]+\s+([A-Za-z0-9_+\-]+)`)

// ParseDataLine matches a phoneme-section data line. Lines that do not
// follow the grammar report ok=false.
func ParseDataLine(line string) (from, to int, unit string, ok bool) {
	m := dataLine.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, "", false
	}
	from, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, "", false
	}
	to, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, "", false
	}
	return from, to, m[3], true
}

// StepKind classifies what a single line did to the parser
type StepKind int

const (
	StepIgnored StepKind = iota
	StepBlockBegin
	StepBlockEnd
	StepSection
	StepVowel
)

// Block is the result of one finalized forced-alignment block
type Block struct {
	Vowels []PendingVowel
}

// Step describes the transition caused by one line
type Step struct {
	Kind    StepKind
	Section Section
	// Vowel is set when Kind is StepVowel
	Vowel PendingVowel
	// Block is set when Kind is StepBlockEnd and the block contained a
	// phoneme section
	Block *Block
}

// Parser is the line-oriented state machine over recognizer output.
// It is not safe for concurrent use; callers serialize Feed.
type Parser struct {
	section    Section
	inBlock    bool
	sawPhoneme bool
	pending    Collector
	logger     zerolog.Logger
}

// NewParser creates a parser in the idle state
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Section returns the section currently being read
func (p *Parser) Section() Section {
	return p.section
}

// InBlock reports whether the parser is between begin and end markers
func (p *Parser) InBlock() bool {
	return p.inBlock
}

// Pending returns a copy of the vowels collected so far in this block
func (p *Parser) Pending() []PendingVowel {
	return p.pending.Vowels()
}

// Reset discards all block-scoped state
func (p *Parser) Reset() {
	p.section = SectionNone
	p.inBlock = false
	p.sawPhoneme = false
	p.pending.Reset()
}

// Feed consumes one decoded line
func (p *Parser) Feed(raw string) Step {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Step{Kind: StepIgnored, Section: p.section}
	}

	switch {
	case strings.HasPrefix(line, BeginMarker):
		p.inBlock = true
		p.sawPhoneme = false
		p.section = SectionNone
		p.pending.Reset()
		p.logger.Debug().Msg("forced alignment begin")
		return Step{Kind: StepBlockBegin, Section: p.section}

	case strings.HasPrefix(line, EndMarker):
		step := Step{Kind: StepBlockEnd}
		if p.inBlock && p.sawPhoneme {
			step.Block = &Block{Vowels: p.pending.Vowels()}
			p.logger.Debug().Int("vowels", len(step.Block.Vowels)).Msg("forced alignment end")
		} else {
			p.logger.Debug().Bool("in_block", p.inBlock).Msg("forced alignment end without phoneme section")
		}
		p.inBlock = false
		p.section = SectionNone
		return step
	}

	if !p.inBlock {
		return Step{Kind: StepIgnored, Section: p.section}
	}

	switch {
	case strings.HasPrefix(line, WordHeader):
		p.section = SectionWord
		return Step{Kind: StepSection, Section: p.section}

	case strings.HasPrefix(line, PhonemeHeader):
		p.section = SectionPhoneme
		p.sawPhoneme = true
		// a second phoneme pass replaces the first
		if n := p.pending.Len(); n > 0 {
			p.logger.Debug().Int("dropped", n).Msg("phoneme section restarted")
		}
		p.pending.Reset()
		return Step{Kind: StepSection, Section: p.section}

	case strings.HasPrefix(line, StateHeader):
		p.section = SectionState
		return Step{Kind: StepSection, Section: p.section}
	}

	if p.section != SectionPhoneme {
		return Step{Kind: StepIgnored, Section: p.section}
	}

	from, to, unit, ok := ParseDataLine(line)
	if !ok {
		return Step{Kind: StepIgnored, Section: p.section}
	}

	v, ok := DecodeUnit(unit, from, to)
	if !ok {
		return Step{Kind: StepIgnored, Section: p.section}
	}

	p.pending.Add(v)
	return Step{Kind: StepVowel, Section: p.section, Vowel: v}
}
