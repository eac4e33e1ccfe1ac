package clients

import (
	"context"
	"net/url"

	"voltswap/api"
)

// VNPay payment types.
const (
	VnpayTypePackage = "PACKAGE"
	VnpayTypeSwap    = "SWAP"
)

// VnpayCreateRequest asks the gateway for a redirect target.
type VnpayCreateRequest struct {
	PaymentID int64  `json:"paymentId"`
	Type      string `json:"type"`
}

// VnpayCreateResponse carries the gateway redirect URL.
type VnpayCreateResponse struct {
	PaymentURL string `json:"paymentUrl"`
}

// VnpayCallback carries the gateway's return parameters. The secure hash is
// passed through untouched; verification happens server-side.
type VnpayCallback struct {
	Amount        int64  `json:"vnp_Amount"`
	BankCode      string `json:"vnp_BankCode"`
	ResponseCode  string `json:"vnp_ResponseCode"`
	TransactionNo string `json:"vnp_TransactionNo"`
	TxnRef        string `json:"vnp_TxnRef"`
	SecureHash    string `json:"vnp_SecureHash"`
}

// VnpayCallbackResult is the backend's verdict on a gateway callback.
type VnpayCallbackResult struct {
	PaymentID int64  `json:"paymentId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// VnpayClient calls the billing service's VNPay gateway endpoints. Failures
// surface as errors like every other module; there is no silent nil result.
type VnpayClient struct {
	api *api.Client
}

// NewVnpayClient returns client.
func NewVnpayClient(apiClient *api.Client) *VnpayClient {
	return &VnpayClient{api: apiClient}
}

// Create asks the gateway for a payment redirect target.
func (c *VnpayClient) Create(ctx context.Context, req VnpayCreateRequest) (*VnpayCreateResponse, error) {
	var resp VnpayCreateResponse
	if err := c.api.Post(ctx, "/billing/api/vnpay/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Callback forwards the gateway's return parameters for verification.
func (c *VnpayClient) Callback(ctx context.Context, cb VnpayCallback) (*VnpayCallbackResult, error) {
	query := url.Values{}
	setNonZero(query, "vnp_Amount", cb.Amount)
	setNonEmpty(query, "vnp_BankCode", cb.BankCode)
	setNonEmpty(query, "vnp_ResponseCode", cb.ResponseCode)
	setNonEmpty(query, "vnp_TransactionNo", cb.TransactionNo)
	setNonEmpty(query, "vnp_TxnRef", cb.TxnRef)
	setNonEmpty(query, "vnp_SecureHash", cb.SecureHash)

	var result VnpayCallbackResult
	if err := c.api.Get(ctx, "/billing/api/vnpay/callback", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
