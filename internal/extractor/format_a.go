package extractor

import (
	"context"
	"strings"

	"github.com/dvloznov/finance-audit/internal/amount"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/pdftext"
)

// FormatAExtractor reads block-oriented statements: a cardholder header,
// an optional currency marker and loosely delimited transaction lines.
type FormatAExtractor struct {
	ReferenceCurrency string
}

func (e *FormatAExtractor) Format() domain.IssuerFormat { return domain.FormatA }

func (e *FormatAExtractor) Extract(ctx context.Context, doc pdftext.Document, source string) Result {
	p := &formatAParser{
		collector:        newCollector(ctx, domain.FormatA, source),
		reference:        e.ReferenceCurrency,
		currency:         e.ReferenceCurrency,
		currencyInferred: true,
	}

	for _, page := range doc.Pages {
		if p.blankPage(page) {
			continue
		}
		for i, line := range page.Lines {
			p.feed(page.Number, i+1, line)
		}
	}
	p.closeBlock()

	return p.result
}

type formatAParser struct {
	*collector
	reference string

	state    parserState
	block    cardBlock
	lastPage int

	// The currency marker outlives blocks; it holds until the next marker.
	currency         string
	currencyInferred bool
}

func (p *formatAParser) feed(page, lineNo int, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	// Headers close the previous block before this line's page counts.
	defer func() { p.lastPage = page }()

	if m := combinedHeaderRe.FindStringSubmatch(line); m != nil {
		p.closeBlock()
		p.block = cardBlock{name: strings.TrimSpace(m[3]), card: m[1], kind: cardKind(m[2])}
		p.state = InCardBlock
		return
	}

	if m := currencyMarkerRe.FindStringSubmatch(line); m != nil {
		p.currency = p.reference
		if strings.EqualFold(m[1], "DOLARES") {
			p.currency = "USD"
		}
		p.currencyInferred = false
		return
	}

	header := false
	if m := nameHeaderRe.FindStringSubmatch(line); m != nil {
		header = true
		p.onName(m[1])
	}
	if m := cardHeaderRe.FindStringSubmatch(line); m != nil {
		header = true
		p.onCard(m[1])
	}
	if header {
		return
	}

	if m := formatATransactionRe.FindStringSubmatch(line); m != nil {
		p.onFullLine(page, lineNo, m)
		return
	}
	if m := compactTransactionRe.FindStringSubmatch(line); m != nil {
		p.onCompactLine(page, lineNo, m)
		return
	}
	if looksLikeTransaction(line) {
		p.issue(domain.FailureStructural, page, lineNo, "transaction-like line does not match the statement layout")
	}
}

func (p *formatAParser) onName(raw string) {
	name := raw
	if loc := cardHeaderRe.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	name = collapseSpaces(name)

	// Statements repeat the header on every page.
	if domain.NameKey(name) == domain.NameKey(p.block.name) {
		return
	}
	p.closeBlock()
	p.block = cardBlock{name: name}
	p.state = AwaitingCardHeader
}

func (p *formatAParser) onCard(suffix string) {
	switch {
	case p.state == InCardBlock && p.block.card == suffix:
		return
	case p.state == InCardBlock:
		name := p.block.name
		p.closeBlock()
		p.block = cardBlock{name: name, card: suffix}
	default:
		p.block.card = suffix
	}
	p.state = InCardBlock
}

func (p *formatAParser) closeBlock() {
	if p.block.transactions == 0 && p.block.identified() {
		p.placeholder(p.block, p.lastPage)
	}
	p.block = cardBlock{}
	p.state = AwaitingCardHeader
}

func (p *formatAParser) accept(page, lineNo int) bool {
	if p.state != InCardBlock {
		p.issue(domain.FailureStructural, page, lineNo, "transaction line before any card header")
		return false
	}
	return true
}

func (p *formatAParser) record(page int) domain.RawTransaction {
	return domain.RawTransaction{
		Format:           domain.FormatA,
		Currency:         p.currency,
		CurrencyInferred: p.currencyInferred,
		CardSuffix:       p.block.card,
		CardKind:         p.block.kind,
		Cardholder:       p.block.name,
		Document:         p.source,
		Page:             page,
	}
}

func (p *formatAParser) onFullLine(page, lineNo int, m []string) {
	if !p.accept(page, lineNo) {
		return
	}
	description := strings.TrimSpace(m[3])
	if excluded(description) {
		return
	}

	tx := p.record(page)
	tx.Authorization = m[1]
	tx.DateText = m[2]
	tx.Date = p.parseDate(m[2], dayFirstLayout, page, lineNo)
	tx.Description = description
	tx.AmountText = m[4]
	tx.Amount = p.parseAmount(m[4], amount.Auto, page, lineNo, "original amount")
	tx.ContractualRate = m[5]
	tx.EffectiveAnnualRate = m[6]
	tx.Charges = p.parseAmount(m[7], amount.Auto, page, lineNo, "charges")
	tx.DeferredBalance = p.parseAmount(m[8], amount.Auto, page, lineNo, "deferred balance")
	tx.Installments = m[9]

	p.block.transactions++
	p.emit(tx)
}

// onCompactLine handles lines printing a primary reference-currency amount
// and, for foreign spend, a secondary original amount with its currency.
func (p *formatAParser) onCompactLine(page, lineNo int, m []string) {
	if !p.accept(page, lineNo) {
		return
	}
	description := strings.TrimSpace(m[2])
	if excluded(description) {
		return
	}

	tx := p.record(page)
	tx.DateText = m[1]
	tx.Date = p.parseDate(m[1], compactLayout, page, lineNo)
	tx.Description = description
	tx.Authorization = m[3]

	primary := p.parseAmount(m[4], amount.Auto, page, lineNo, "primary amount")
	if code := strings.ToUpper(m[6]); code != "" {
		tx.Currency = code
		tx.CurrencyInferred = false
	}
	if m[5] != "" {
		tx.StatementAmount = primary
		tx.AmountText = m[5]
		tx.Amount = p.parseAmount(m[5], amount.Auto, page, lineNo, "secondary amount")
	} else {
		tx.AmountText = m[4]
		tx.Amount = primary
	}

	p.block.transactions++
	p.emit(tx)
}

// cardKind spells the printed card kind the same way whether or not the
// statement accents it.
func cardKind(printed string) string {
	if strings.EqualFold(printed, "virtual") {
		return "Virtual"
	}
	return "Física"
}
