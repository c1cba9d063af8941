// Package manifest implements status.json encode/decode: the per-year
// summary of how much of the jet set has been processed, plus optional JWT
// signing so a downstream consumer can verify the manifest's origin.
package manifest

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// YearStatus summarizes one year's worth of the leg ETL.
type YearStatus struct {
	IcaoMonthsToProcess int    `json:"icao_months_to_process"`
	IcaoMonthsProcessed int    `json:"icao_months_processed"`
	URL                 string `json:"url"`
}

// Status is the full status.json document, keyed by year.
type Status map[int]YearStatus

// Encode renders Status as status.json bytes: {"<year>": {...}}, matching
// the string-keyed JSON object spec.md §6 requires.
func Encode(s Status) ([]byte, error) {
	strKeyed := make(map[string]YearStatus, len(s))
	for year, v := range s {
		strKeyed[strconv.Itoa(year)] = v
	}
	data, err := json.Marshal(strKeyed)
	if err != nil {
		return nil, fmt.Errorf("manifest: encoding status: %w", err)
	}
	return data, nil
}

// Decode parses status.json bytes back into a Status.
func Decode(data []byte) (Status, error) {
	var strKeyed map[string]YearStatus
	if err := json.Unmarshal(data, &strKeyed); err != nil {
		return nil, fmt.Errorf("manifest: decoding status: %w", err)
	}
	out := make(Status, len(strKeyed))
	for k, v := range strKeyed {
		year, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("manifest: invalid year key %q: %w", k, err)
		}
		out[year] = v
	}
	return out, nil
}

// statusClaims wraps a Status document as the subject of a signed JWT, so a
// downstream consumer can verify the manifest came from this pipeline
// before trusting its Completed counts.
type statusClaims struct {
	jwt.RegisteredClaims
	Status Status `json:"status"`
}

// Sign produces a detached JWT (HS256) whose claims embed s, signed with
// secret. The returned token is not itself status.json: it is an optional
// companion artifact for integrity verification.
func Sign(s Status, secret []byte) (string, error) {
	claims := statusClaims{Status: s}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("manifest: signing status: %w", err)
	}
	return signed, nil
}

// Verify validates a signed status token produced by Sign and returns its
// embedded Status.
func Verify(token string, secret []byte) (Status, error) {
	var claims statusClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("manifest: unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: verifying status token: %w", err)
	}
	return claims.Status, nil
}
