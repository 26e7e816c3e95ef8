package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TransferPattern recognizes a debit that moves money between accounts
// rather than paying for something.
type TransferPattern struct {
	Name     string
	Regex    string
	Priority int // checked highest first
}

// DefaultTransferPatterns covers the common bank wording for transfers and
// card or loan payments.
func DefaultTransferPatterns() []TransferPattern {
	return []TransferPattern{
		{Name: "Wire Transfer", Regex: `\b(WIRE\s*OUT|WIRE\s*TRANSFER|WIRE\s*XFER)\b`, Priority: 85},
		{Name: "Account Transfer", Regex: `\b(TRANSFER|XFER|TFR|MOVE\s*MONEY|ACCOUNT\s*TO\s*ACCOUNT)\b`, Priority: 80},
		{Name: "Investment Transfer", Regex: `\b(401K|IRA|ROTH|BROKERAGE)\s*(CONTRIBUTION|TRANSFER|ROLLOVER)\b`, Priority: 80},
		{Name: "Savings Transfer", Regex: `\b(TO\s*SAVINGS|SAVINGS\s*TRANSFER)\b`, Priority: 75},
		{Name: "Credit Card Payment", Regex: `\b(CC\s*PAYMENT|CREDIT\s*CARD\s*PAY|CARD\s*PAYMENT|PMT\s*TO|AUTOPAY)\b`, Priority: 75},
		{Name: "Loan Payment", Regex: `\b(LOAN\s*PMT|MORTGAGE\s*PMT|STUDENT\s*LOAN\s*PMT)\b`, Priority: 70},
	}
}

type compiledPattern struct {
	regex *regexp.Regexp
	TransferPattern
}

// TransferDetector matches statement descriptions against transfer patterns.
type TransferDetector struct {
	patterns []compiledPattern
}

// NewTransferDetector compiles patterns. Matching is case-insensitive.
func NewTransferDetector(patterns []TransferPattern) (*TransferDetector, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		expr := p.Regex
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		regex, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}
		compiled = append(compiled, compiledPattern{TransferPattern: p, regex: regex})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &TransferDetector{patterns: compiled}, nil
}

// DefaultTransferDetector returns a detector for DefaultTransferPatterns.
func DefaultTransferDetector() *TransferDetector {
	d, err := NewTransferDetector(DefaultTransferPatterns())
	if err != nil {
		panic(err)
	}
	return d
}

// Match returns the name of the first pattern that matches text.
func (d *TransferDetector) Match(text string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, p := range d.patterns {
		if p.regex.MatchString(text) {
			return p.Name, true
		}
	}
	return "", false
}
