package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Wire values of the backend's tipo field.
const (
	wireInflow   = "entrada"
	wireOutflow  = "saida"
	wireTransfer = "transferencia"
)

// wireID accepts ids sent either as JSON numbers or strings.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = wireID(n.String())
	return nil
}

// ref renders an id for a request body. Numeric ids go out as numbers and
// empty ids as null.
func ref(id string) any {
	if id == "" {
		return nil
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

type transactionDTO struct {
	ID              wireID `json:"id"`
	Tipo            string `json:"tipo"`
	Valor           string `json:"valor"`
	Descricao       string `json:"descricao"`
	Data            string `json:"data"`
	Account         wireID `json:"account"`
	CreditCard      wireID `json:"credit_card"`
	Category        wireID `json:"category"`
	CategoryName    string `json:"category_name"`
	Beneficiario    wireID `json:"beneficiario"`
	BeneficiaryName string `json:"beneficiario_name"`
	TotalParcelas   int    `json:"total_parcelas"`
	NumeroParcela   int    `json:"numero_parcela"`
	Confirmada      bool   `json:"confirmada"`
}

func kindFromWire(tipo string) (model.Kind, error) {
	switch tipo {
	case wireInflow:
		return model.KindInflow, nil
	case wireOutflow:
		return model.KindOutflow, nil
	case wireTransfer:
		return model.KindTransfer, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrInvalidKind, tipo)
}

func kindToWire(kind model.Kind) string {
	switch kind {
	case model.KindInflow:
		return wireInflow
	case model.KindTransfer:
		return wireTransfer
	default:
		return wireOutflow
	}
}

func (d transactionDTO) toModel() (model.Transaction, error) {
	kind, err := kindFromWire(d.Tipo)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	date, err := time.Parse(model.DateLayout, d.Data)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: invalid date %q: %w", d.ID, d.Data, err)
	}
	amount, err := decimal.NewFromString(d.Valor)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: invalid amount %q: %w", d.ID, d.Valor, err)
	}

	installments := d.TotalParcelas
	if installments < 1 {
		installments = 1
	}
	return model.Transaction{
		Date:            date,
		Amount:          amount.Abs(),
		ID:              string(d.ID),
		AccountID:       string(d.Account),
		CreditCardID:    string(d.CreditCard),
		BeneficiaryID:   string(d.Beneficiario),
		BeneficiaryName: d.BeneficiaryName,
		Description:     d.Descricao,
		CategoryID:      string(d.Category),
		CategoryName:    d.CategoryName,
		Kind:            kind,
		Installment:     d.NumeroParcela,
		Installments:    installments,
		Confirmed:       d.Confirmada,
	}, nil
}

// createBody is the full record sent when creating a transaction.
func createBody(t model.Transaction) map[string]any {
	body := map[string]any{
		"tipo":         kindToWire(t.Kind),
		"valor":        t.Amount.StringFixed(2),
		"descricao":    t.Description,
		"data":         t.Date.Format(model.DateLayout),
		"account":      ref(t.AccountID),
		"credit_card":  ref(t.CreditCardID),
		"category":     ref(t.CategoryID),
		"beneficiario": ref(t.BeneficiaryID),
		"confirmada":   t.Confirmed,
	}
	if t.Installments > 1 {
		body["total_parcelas"] = t.Installments
		body["numero_parcela"] = t.Installment
	}
	return body
}

// patchBody carries only the fields the patch touches.
func patchBody(p model.TransactionPatch) map[string]any {
	body := make(map[string]any)
	if p.Date != nil {
		body["data"] = p.Date.Format(model.DateLayout)
	}
	if p.Amount != nil {
		body["valor"] = p.Amount.StringFixed(2)
	}
	if p.Source != nil {
		switch p.Source.Type {
		case model.SourceCard:
			body["account"] = nil
			body["credit_card"] = ref(p.Source.ID)
		default:
			body["account"] = ref(p.Source.ID)
			body["credit_card"] = nil
		}
	}
	if p.BeneficiaryID != nil {
		body["beneficiario"] = ref(*p.BeneficiaryID)
	}
	if p.Description != nil {
		body["descricao"] = *p.Description
	}
	if p.CategoryID != nil {
		body["category"] = ref(*p.CategoryID)
	}
	if p.Kind != nil {
		body["tipo"] = kindToWire(*p.Kind)
	}
	if p.Confirmed != nil {
		body["confirmada"] = *p.Confirmed
	}
	return body
}

// namedDTO covers the reference collections, which name things either
// "nome" or "name" depending on the endpoint.
type namedDTO struct {
	ID          wireID `json:"id"`
	Nome        string `json:"nome"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
	Bandeira    string `json:"bandeira"`
	Bank        string `json:"banco"`
}

func (d namedDTO) label() string {
	if d.Nome != "" {
		return d.Nome
	}
	return d.Name
}

type confirmResponse struct {
	Transaction transactionDTO `json:"transaction"`
}

type searchOrCreateResponse struct {
	Beneficiary namedDTO `json:"beneficiary"`
	Created     bool     `json:"created"`
}

// decodePage accepts both paginated ({"results": [...], "next": url}) and
// bare array bodies. next is empty on the last page.
func decodePage[T any](data []byte) (items []T, next string, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &items)
		return items, "", err
	}
	var page struct {
		Next    *string `json:"next"`
		Results []T     `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, "", err
	}
	if page.Next != nil {
		next = *page.Next
	}
	return page.Results, next, nil
}
