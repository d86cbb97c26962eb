package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const generateTokenPath = "/generateToken"

type generateTokenRequest struct {
	JWT      string `json:"jwt"`
	Provider string `json:"provider"`
}

type generateTokenResponse struct {
	Code  *int    `json:"code"`
	Token *string `json:"token"`
}

// tokenGenerator calls the token service that validates a federated ID token
// and mints a custom sign-in token for it.
type tokenGenerator struct {
	baseURL string
	client  *http.Client
}

func (g *tokenGenerator) generate(ctx context.Context, idToken, issuer string) (string, error) {
	body, err := json.Marshal(generateTokenRequest{JWT: idToken, Provider: issuer})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+generateTokenPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrBackendRejection, resp.StatusCode)
	}
	var out generateTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	if out.Code == nil || out.Token == nil {
		return "", fmt.Errorf("%w: missing code or token", ErrResponseParse)
	}
	return *out.Token, nil
}
