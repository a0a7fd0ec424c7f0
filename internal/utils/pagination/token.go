package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// tokenEncoding is URL safe because tokens travel in query strings.
var tokenEncoding = base64.RawURLEncoding

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	return tokenEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}

// EncodeTransactionCursor creates a token for the (date, id) keyset used when
// listing transactions newest first.
func EncodeTransactionCursor(date civil.Date, transactionID string) string {
	return EncodeMultiFieldToken(date.String(), transactionID)
}

// DecodeTransactionCursor parses a token created by EncodeTransactionCursor.
func DecodeTransactionCursor(token string) (civil.Date, string, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return civil.Date{}, "", err
	}
	if len(parts) != 2 || parts[1] == "" {
		return civil.Date{}, "", fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := civil.ParseDate(parts[0])
	if err != nil {
		return civil.Date{}, "", fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}
	return date, parts[1], nil
}
