package codec

import (
	"errors"
	"strings"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
)

// ErrInvalidSource is returned for identifier pairs that are neither account-<id> nor card-<id>.
var ErrInvalidSource = errors.New("expected account-<id> or card-<id>")

const (
	accountPrefix = "account-"
	cardPrefix    = "card-"
)

// EncodeSource renders a source reference as a discriminated string.
// A zero reference encodes to the empty string.
func EncodeSource(ref model.SourceRef) string {
	switch {
	case ref.IsZero():
		return ""
	case ref.Type == model.SourceCard:
		return cardPrefix + ref.ID
	default:
		return accountPrefix + ref.ID
	}
}

// DecodeSource parses a discriminated account/card string.
func DecodeSource(raw string) (model.SourceRef, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, accountPrefix) && len(raw) > len(accountPrefix):
		return model.SourceRef{Type: model.SourceAccount, ID: raw[len(accountPrefix):]}, nil
	case strings.HasPrefix(raw, cardPrefix) && len(raw) > len(cardPrefix):
		return model.SourceRef{Type: model.SourceCard, ID: raw[len(cardPrefix):]}, nil
	}
	return model.SourceRef{}, common.NewValidationError("account", raw, ErrInvalidSource)
}
