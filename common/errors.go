package common

import (
	"fmt"

	"golang.org/x/xerrors"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindState
	KindAuthorization
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindAuthorization:
		return "authorization"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// AuctionError is a stable, client-visible failure reason.
type AuctionError struct {
	Code uint32
	Name string
	Msg  string
	Kind Kind
}

func (e *AuctionError) Error() string {
	return fmt.Sprintf("%s (0x%x): %s", e.Name, e.Code, e.Msg)
}

func newError(code uint32, name, msg string, kind Kind) *AuctionError {
	return &AuctionError{Code: code, Name: name, Msg: msg, Kind: kind}
}

// codes start at 0x1770 and follow declaration order
var (
	ErrInvalidMetadata           = newError(0x1770, "InvalidMetadata", "invalid metadata address", KindValidation)
	ErrMetadataCreatorParseError = newError(0x1771, "MetadataCreatorParseError", "can't parse the asset's collection or creators", KindValidation)
	ErrInvalidDuration           = newError(0x1772, "InvalidDuration", "duration out of the allowed range", KindValidation)
	ErrInvalidBidFloor           = newError(0x1773, "InvalidBidFloor", "start price must be at least 1", KindValidation)
	ErrEndedAuction              = newError(0x1774, "EndedAuction", "the auction has already ended", KindState)
	ErrInsufficientBid           = newError(0x1775, "InsufficientBid", "bid is below the minimum increment over the current bid", KindValidation)
	ErrInsufficientFirstBid      = newError(0x1776, "InsufficientFirstBid", "first bid must be at least the start price", KindValidation)
	ErrOutBidderMismatch         = newError(0x1777, "OutBidderMismatch", "out bidder does not match the current bidder", KindAuthorization)
	ErrInvalidClaimer            = newError(0x1778, "InvalidClaimer", "claimer is neither the seller nor the winning bidder", KindAuthorization)
	ErrNotEndedAuction           = newError(0x1779, "NotEndedAuction", "the auction has not ended yet", KindState)
	ErrInvalidWinner             = newError(0x177a, "InvalidWinner", "winner account must belong to the last bidder", KindAuthorization)
	ErrInvalidSeller             = newError(0x177b, "InvalidSeller", "seller account must belong to the auction creator", KindAuthorization)
	ErrAccountCountMismatch      = newError(0x177c, "AccountCountMismatch", "royalty accounts do not match the creators", KindValidation)
	ErrInvalidCancel             = newError(0x177d, "InvalidCancel", "cannot cancel an auction with a bid or by a non-seller", KindState)
	ErrArithmeticOverflow        = newError(0x177e, "ArithmeticOverflow", "balance arithmetic overflow", KindIntegrity)
)

var AllErrors = []*AuctionError{
	ErrInvalidMetadata,
	ErrMetadataCreatorParseError,
	ErrInvalidDuration,
	ErrInvalidBidFloor,
	ErrEndedAuction,
	ErrInsufficientBid,
	ErrInsufficientFirstBid,
	ErrOutBidderMismatch,
	ErrInvalidClaimer,
	ErrNotEndedAuction,
	ErrInvalidWinner,
	ErrInvalidSeller,
	ErrAccountCountMismatch,
	ErrInvalidCancel,
	ErrArithmeticOverflow,
}

// KindOf classifies err by the first AuctionError in its chain.
func KindOf(err error) Kind {
	var ae *AuctionError
	if xerrors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// CodeOf returns the stable code of err, or 0 when err carries none.
func CodeOf(err error) uint32 {
	var ae *AuctionError
	if xerrors.As(err, &ae) {
		return ae.Code
	}
	return 0
}
