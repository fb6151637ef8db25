package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/TORY-SKY/swappNaija/internal/config"
)

// GatewayError 网关返回非 2xx 时的错误，Message 透传上游原始信息
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paystack: %s (status %d)", e.Message, e.StatusCode)
}

// envelope Paystack 统一响应包裹
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client Paystack HTTP 客户端，持有 bearer secret
type Client struct {
	baseURL string
	secret  string
	httpc   *http.Client
}

// New 创建网关客户端
func New(cfg *config.PaystackConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		secret:  cfg.SecretKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("paystack: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &GatewayError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("paystack: decode data: %w", err)
		}
	}
	return nil
}

// TransactionData 交易校验结果
type TransactionData struct {
	Amount    int64  `json:"amount"` // kobo
	Reference string `json:"reference"`
	Status    string `json:"status"` // success / failed / abandoned
	PaidAt    string `json:"paid_at"`
}

// VerifyTransaction 校验一笔支付引用是否成功
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	var data TransactionData
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CreateRecipient 注册转账收款人，返回 recipient_code
func (c *Client) CreateRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error) {
	req := map[string]string{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}
	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := c.do(ctx, http.MethodPost, "/transferrecipient", req, &data); err != nil {
		return "", err
	}
	return data.RecipientCode, nil
}

// TransferData 转账受理结果
type TransferData struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
}

// InitiateTransfer 发起余额转账，amount 单位 kobo
func (c *Client) InitiateTransfer(ctx context.Context, amount int64, recipientCode, reason string) (*TransferData, error) {
	if reason == "" {
		reason = "Payout from SwappNaija"
	}
	req := map[string]any{
		"source":    "balance",
		"amount":    amount,
		"recipient": recipientCode,
		"reason":    reason,
	}
	var data TransferData
	if err := c.do(ctx, http.MethodPost, "/transfer", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ResolveAccount 核验银行账号并返回开户名
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)
	var data struct {
		AccountName string `json:"account_name"`
	}
	if err := c.do(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &data); err != nil {
		return "", err
	}
	return data.AccountName, nil
}

// Bank 银行条目
type Bank struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Country string `json:"country"`
}

// ListBanks 拉取银行列表
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := c.do(ctx, http.MethodGet, "/bank", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}
