package nearauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type viewAccessKeyParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
	PublicKey   string `json:"public_key"`
}

// checkAccessKey asks a NEAR RPC node whether the signing key is a
// full-access key on the asserted account. Function-call keys cannot prove
// account ownership, so anything else is rejected.
func (v *Verifier) checkAccessKey(ctx context.Context, accountID, publicKey string) error {
	httpClient := v.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "nearlink",
		Method:  "query",
		Params: viewAccessKeyParams{
			RequestType: "view_access_key",
			Finality:    "final",
			AccountID:   accountID,
			PublicKey:   publicKey,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.RPCURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("near rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("near rpc returned HTTP %d", resp.StatusCode)
	}

	var rpcResp struct {
		Result *struct {
			Permission json.RawMessage `json:"permission"`
			Error      string          `json:"error"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
			Data    string `json:"data"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("%w: %s", ErrKeyNotAuthorized, rpcResp.Error.Message)
	}
	if rpcResp.Result == nil {
		return fmt.Errorf("near rpc returned no result")
	}
	// Lookup failures ("access key not found") come back inside result.
	if rpcResp.Result.Error != "" {
		return fmt.Errorf("%w: %s", ErrKeyNotAuthorized, rpcResp.Result.Error)
	}

	var permission string
	if err := json.Unmarshal(rpcResp.Result.Permission, &permission); err != nil || permission != "FullAccess" {
		return ErrKeyNotAuthorized
	}

	return nil
}
