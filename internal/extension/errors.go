package extension

import (
	"encoding/json"
	"errors"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	scouterr "github.com/talentscout/scout/pkg/errors"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupported       = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
)

// Classify maps a wallet failure onto the scout error taxonomy.
// Errors already classified pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{
		scouterr.ErrExtensionAbsent,
		scouterr.ErrUserRejected,
		scouterr.ErrChainUnknown,
		scouterr.ErrWrongChain,
		scouterr.ErrNetworkQueryFailed,
		scouterr.ErrUnknown,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch errorCode(err) {
	case CodeUserRejected, CodeUnauthorized:
		return scouterr.Because(scouterr.ErrUserRejected, err)
	case CodeUnrecognizedChain:
		return scouterr.Because(scouterr.ErrChainUnknown, err)
	case CodeDisconnected, CodeChainDisconnected:
		return scouterr.Because(scouterr.ErrExtensionAbsent, err)
	}

	return Unknown(err)
}

// Unknown wraps err as the catch-all kind, keeping its message verbatim.
func Unknown(err error) error {
	return &scouterr.ScoutError{
		Code:     scouterr.ErrUnknown.Code,
		Message:  err.Error(),
		ExitCode: scouterr.ErrUnknown.ExitCode,
	}
}

// IsChainUnknown reports whether err means the wallet does not know the chain.
func IsChainUnknown(err error) bool {
	return errors.Is(Classify(err), scouterr.ErrChainUnknown)
}

// errorCode extracts the provider error code. Some wallets report an
// unrecognized chain as an internal error carrying the real code in data.
func errorCode(err error) int {
	var rpcErr gethrpc.Error
	if !errors.As(err, &rpcErr) {
		return 0
	}
	code := rpcErr.ErrorCode()

	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) {
		if nested := nestedCode(dataErr.ErrorData()); nested != 0 {
			return nested
		}
	}
	return code
}

func nestedCode(data any) int {
	if data == nil {
		return 0
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return 0
	}

	var payload struct {
		Code          int `json:"code"`
		OriginalError struct {
			Code int `json:"code"`
		} `json:"originalError"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return 0
	}
	if payload.OriginalError.Code != 0 {
		return payload.OriginalError.Code
	}
	return payload.Code
}
