// Package extractor turns statement page text into raw transaction records.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/amount"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/pdftext"
)

// Extractor parses one statement layout.
type Extractor interface {
	Format() domain.IssuerFormat
	Extract(ctx context.Context, doc pdftext.Document, source string) Result
}

// Result is the outcome of extracting one document: the records that could
// be read plus the typed reasons for everything that could not.
type Result struct {
	Records []domain.RawTransaction
	Issues  []domain.Issue
}

// Placeholders counts the zero-activity records in the result.
func (r Result) Placeholders() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Placeholder {
			n++
		}
	}
	return n
}

// DetectFormat infers the layout from the file name. Names mentioning
// neither issuer are FormatUnknown and are skipped by callers.
func DetectFormat(filename string) domain.IssuerFormat {
	name := strings.ToUpper(filepath.Base(filename))
	switch {
	case strings.Contains(name, "MC"), strings.Contains(name, "MASTERCARD"):
		return domain.FormatA
	case strings.Contains(name, "VISA"):
		return domain.FormatB
	default:
		return domain.FormatUnknown
	}
}

// New returns the extractor for a layout. referenceCurrency is the currency
// assumed when a statement does not say otherwise.
func New(format domain.IssuerFormat, referenceCurrency string) (Extractor, error) {
	switch format {
	case domain.FormatA:
		return &FormatAExtractor{ReferenceCurrency: referenceCurrency}, nil
	case domain.FormatB:
		return &FormatBExtractor{ReferenceCurrency: referenceCurrency}, nil
	default:
		return nil, fmt.Errorf("extractor: unsupported format %q", format)
	}
}

// parserState is the position of a parser relative to card blocks.
type parserState int

const (
	AwaitingCardHeader parserState = iota
	InCardBlock
)

func (s parserState) String() string {
	if s == InCardBlock {
		return "in_card_block"
	}
	return "awaiting_card_header"
}

// cardBlock is the region of a statement belonging to one card.
type cardBlock struct {
	name         string
	card         string
	kind         string
	transactions int
}

func (b cardBlock) identified() bool {
	return b.name != "" && b.card != ""
}

// collector accumulates records and issues for one document.
type collector struct {
	format domain.IssuerFormat
	source string
	log    zerolog.Logger
	result Result
}

func newCollector(ctx context.Context, format domain.IssuerFormat, source string) *collector {
	log := logger.FromContext(ctx).With().
		Str("document", source).
		Str("format", format.String()).
		Logger()
	return &collector{format: format, source: source, log: log}
}

func (c *collector) issue(kind domain.FailureKind, page, line int, detail string) {
	c.result.Issues = append(c.result.Issues, domain.Issue{
		Kind:     kind,
		Document: c.source,
		Page:     page,
		Line:     line,
		Detail:   detail,
	})

	ev := c.log.Debug()
	if kind == domain.FailureStructural {
		ev = c.log.Warn()
	}
	ev.Str("kind", string(kind)).Int("page", page).Int("line", line).Msg(detail)
}

func (c *collector) emit(tx domain.RawTransaction) {
	c.result.Records = append(c.result.Records, tx)
}

func (c *collector) placeholder(b cardBlock, page int) {
	c.emit(domain.RawTransaction{
		Format:        c.format,
		Authorization: domain.PlaceholderAuthorization,
		CardSuffix:    b.card,
		CardKind:      b.kind,
		Cardholder:    b.name,
		Document:      c.source,
		Page:          page,
		Placeholder:   true,
	})
}

func (c *collector) blankPage(page pdftext.Page) bool {
	for _, l := range page.Lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	c.issue(domain.FailureStructural, page.Number, 0, "page has no text")
	return true
}

// parseDate returns nil and records a numeric-parse issue when text does
// not fit layout.
func (c *collector) parseDate(text, layout string, page, line int) *civil.Date {
	t, err := time.Parse(layout, strings.TrimSpace(text))
	if err != nil {
		c.issue(domain.FailureNumericParse, page, line, fmt.Sprintf("date %q: %v", text, err))
		return nil
	}
	d := civil.DateOf(t)
	return &d
}

// parseAmount returns a null decimal and records a numeric-parse issue when
// text is not an amount.
func (c *collector) parseAmount(text string, locale amount.Locale, page, line int, field string) decimal.NullDecimal {
	d, err := amount.ParseLocale(text, locale)
	if err != nil {
		c.issue(domain.FailureNumericParse, page, line, fmt.Sprintf("%s: %v", field, err))
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
