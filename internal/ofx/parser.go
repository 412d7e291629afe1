// Package ofx reads OFX/QFX bank and card statements into transaction drafts.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at the end of a line that lost their closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is one account's worth of transactions from a file.
type Statement struct {
	AcctID       string
	Transactions []model.Transaction
	Card         bool
}

// Source returns where the statement's transactions are booked by default.
func (s Statement) Source() model.SourceRef {
	if s.Card {
		return model.SourceRef{Type: model.SourceCard, ID: s.AcctID}
	}
	return model.SourceRef{Type: model.SourceAccount, ID: s.AcctID}
}

// Rebook returns the statement's transactions moved onto source.
func (s Statement) Rebook(source model.SourceRef) []model.Transaction {
	out := make([]model.Transaction, len(s.Transactions))
	for i, t := range s.Transactions {
		t.AccountID, t.CreditCardID = "", ""
		if source.Type == model.SourceCard {
			t.CreditCardID = source.ID
		} else {
			t.AccountID = source.ID
		}
		out[i] = t
	}
	return out
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file into one Statement per account.
// Bank transactions are imported as confirmed; card charges stay pending
// until their invoice is paid.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Statement, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var statements []Statement
	total := 0

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		s, err := p.convertStatement(string(stmt.BankAcctFrom.AcctID), false, stmt.BankTranList.Transactions)
		if err != nil {
			slog.Warn("Failed to process bank statement", "account", stmt.BankAcctFrom.AcctID, "error", err)
			continue
		}
		total += len(s.Transactions)
		statements = append(statements, s)
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		s, err := p.convertStatement(string(stmt.CCAcctFrom.AcctID), true, stmt.BankTranList.Transactions)
		if err != nil {
			slog.Warn("Failed to process credit card statement", "account", stmt.CCAcctFrom.AcctID, "error", err)
			continue
		}
		total += len(s.Transactions)
		statements = append(statements, s)
	}

	slog.Info("Parsed OFX file", "statements", len(statements), "total_transactions", total)
	return statements, nil
}

func (p *Parser) convertStatement(acctID string, card bool, txns []ofxgo.Transaction) (Statement, error) {
	s := Statement{AcctID: acctID, Card: card}
	for _, ofxTx := range txns {
		t, err := p.convertTransaction(ofxTx, s.Source())
		if err != nil {
			return Statement{}, err
		}
		s.Transactions = append(s.Transactions, t)
	}
	return s, nil
}

// convertTransaction maps a signed OFX amount to a magnitude and a kind.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, source model.SourceRef) (model.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount for %s: %w", ofxTx.FiTID, err)
	}

	kind := model.KindOutflow
	switch {
	case ofxTx.TrnType == ofxgo.TrnTypeXfer:
		kind = model.KindTransfer
	case amount.IsPositive():
		kind = model.KindInflow
	}

	t := model.Transaction{
		Date:         model.DateOnly(ofxTx.DtPosted.Time),
		Amount:       amount.Abs(),
		Description:  p.extractMerchantName(ofxTx),
		Kind:         kind,
		Installments: 1,
		Confirmed:    source.Type != model.SourceCard,
	}
	if source.Type == model.SourceCard {
		t.CreditCardID = source.ID
	} else {
		t.AccountID = source.ID
	}
	return t, nil
}

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
	"COMPRA CARTAO ",
	"COMPRA NO DEBITO ",
	"PIX ENVIADO ",
	"PIX RECEBIDO ",
}

var genericDescriptions = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
	"PAGAMENTO":       true,
	"COMPRA":          true,
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && genericDescriptions[strings.ToUpper(name)] {
		name = strings.TrimSpace(string(tx.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " or "DD/MM " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

// GetAccounts extracts the unique account ids in the file, sorted.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]string, error) {
	statements, err := p.ParseFile(ctx, reader)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var accounts []string
	for _, s := range statements {
		if s.AcctID != "" && !seen[s.AcctID] {
			seen[s.AcctID] = true
			accounts = append(accounts, s.AcctID)
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}
