package extractor

import (
	"context"
	"strings"
	"unicode"

	"github.com/dvloznov/finance-audit/internal/amount"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/pdftext"
)

// FormatBExtractor reads line-oriented statements where a card-suffix line
// opens each cardholder section and the line above it names the holder.
type FormatBExtractor struct {
	ReferenceCurrency string
}

func (e *FormatBExtractor) Format() domain.IssuerFormat { return domain.FormatB }

func (e *FormatBExtractor) Extract(ctx context.Context, doc pdftext.Document, source string) Result {
	p := &formatBParser{
		collector: newCollector(ctx, domain.FormatB, source),
		currency:  e.ReferenceCurrency,
	}

	for _, page := range doc.Pages {
		// The holder name is looked up on the same page only.
		p.prevLine = ""
		if p.blankPage(page) {
			continue
		}
		for i, line := range page.Lines {
			p.feed(page.Number, i+1, line)
		}
	}
	p.closeSection()

	return p.result
}

type formatBParser struct {
	*collector
	currency string

	state    parserState
	block    cardBlock
	lastPage int
	prevLine string
}

func (p *formatBParser) feed(page, lineNo int, raw string) {
	line := collapseSpaces(raw)
	defer func() { p.prevLine = line }()
	if line == "" {
		return
	}
	p.lastPage = page

	if m := cardHeaderRe.FindStringSubmatch(line); m != nil {
		p.openSection(page, lineNo, m[1])
		return
	}

	if m := formatBTransactionRe.FindStringSubmatch(line); m != nil {
		p.onTransaction(page, lineNo, m)
		return
	}

	if looksLikeTransaction(line) {
		p.issue(domain.FailureStructural, page, lineNo, "transaction-like line does not match the statement layout")
	}
}

func (p *formatBParser) openSection(page, lineNo int, suffix string) {
	name := p.block.name
	p.closeSection()

	// A rejected candidate keeps the holder of the previous section.
	if candidate := candidateName(p.prevLine); candidate != "" {
		name = candidate
	}
	p.block = cardBlock{name: name, card: suffix}
	p.state = InCardBlock

	if name == "" {
		p.issue(domain.FailureStructural, page, lineNo, "card section without a cardholder name")
	}
}

func (p *formatBParser) closeSection() {
	if p.state == InCardBlock && p.block.transactions == 0 && p.block.identified() {
		p.placeholder(p.block, p.lastPage)
	}
	p.state = AwaitingCardHeader
}

func (p *formatBParser) onTransaction(page, lineNo int, m []string) {
	if p.state != InCardBlock || p.block.name == "" {
		p.issue(domain.FailureStructural, page, lineNo, "transaction line outside a named card section")
		return
	}
	description := strings.TrimSpace(m[3])
	if excluded(description) {
		return
	}

	tx := domain.RawTransaction{
		Format:              domain.FormatB,
		Authorization:       m[1],
		DateText:            m[2],
		Date:                p.parseDate(m[2], dayFirstLayout, page, lineNo),
		Description:         description,
		AmountText:          m[4],
		Amount:              p.parseAmount(m[4], amount.CommaDecimal, page, lineNo, "original amount"),
		Currency:            p.currency,
		ContractualRate:     m[5],
		EffectiveAnnualRate: m[6],
		Charges:             p.parseAmount(m[7], amount.CommaDecimal, page, lineNo, "charges"),
		DeferredBalance:     p.parseAmount(m[8], amount.CommaDecimal, page, lineNo, "deferred balance"),
		Installments:        m[9],
		CardSuffix:          p.block.card,
		Cardholder:          p.block.name,
		Document:            p.source,
		Page:                page,
	}

	p.block.transactions++
	p.emit(tx)
}

// candidateName returns the holder name printed above a card line, or ""
// when the line is not a plausible name: fewer than two tokens, or digits,
// which only headers and transaction lines carry.
func candidateName(line string) string {
	name := collapseSpaces(namePrefixRe.ReplaceAllString(line, ""))
	if len(strings.Fields(name)) < 2 {
		return ""
	}
	if strings.IndexFunc(name, unicode.IsDigit) >= 0 {
		return ""
	}
	return name
}
