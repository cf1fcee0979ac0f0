package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type FaucetCoin struct {
	Amount           uint64 `json:"amount"`
	ID               string `json:"id"`
	TransferTxDigest string `json:"transferTxDigest"`
}

type FaucetResponse struct {
	TransferredGasObjects []FaucetCoin `json:"transferredGasObjects"`
	Error                 *string      `json:"error"`
}

// RequestFromFaucet asks the faucet at host to send test SUI to recipient.
func RequestFromFaucet(ctx context.Context, httpClient *http.Client, host, recipient string) (*FaucetResponse, error) {
	if host == "" {
		return nil, ErrNoFaucet
	}
	body, err := json.Marshal(map[string]any{
		"FixedAmountRequest": map[string]string{"recipient": NormalizeAddress(recipient)},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(host, "/")+"/v1/gas", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("faucet request to %s failed: %w", host, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("faucet rate limited, try again later")
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("faucet returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	var faucetResp FaucetResponse
	if err := json.Unmarshal(respBody, &faucetResp); err != nil {
		return nil, fmt.Errorf("invalid faucet response: %w", err)
	}
	if faucetResp.Error != nil && *faucetResp.Error != "" {
		return nil, fmt.Errorf("faucet error: %s", *faucetResp.Error)
	}
	return &faucetResp, nil
}
