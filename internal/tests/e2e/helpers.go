package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Payment struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Method   string  `json:"method"`
	Status   string  `json:"status"`
	UserID   string  `json:"userId"`
	OrderID  *string `json:"orderId"`
}

type Invoice struct {
	ID            string  `json:"id"`
	InvoiceNumber string  `json:"invoiceNumber"`
	PaymentID     string  `json:"paymentId"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	IssueDate     string  `json:"issueDate"`
	DueDate       *string `json:"dueDate"`
	SentAt        *string `json:"sentAt"`
	PaidAt        *string `json:"paidAt"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, e.Message)
}

// TestClient wraps HTTP calls to the billing service.
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *TestClient) do(t *testing.T, method, path string, body, out any) error {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return nil
}

func (c *TestClient) CreatePayment(t *testing.T, req map[string]any) (*Payment, error) {
	var p Payment
	if err := c.do(t, http.MethodPost, "/payments", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *TestClient) UpdatePaymentStatus(t *testing.T, id, status string) (*Payment, error) {
	var p Payment
	if err := c.do(t, http.MethodPatch, "/payments/"+id, map[string]string{"status": status}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *TestClient) CreateInvoice(t *testing.T, paymentID string) (*Invoice, error) {
	var inv Invoice
	if err := c.do(t, http.MethodPost, "/invoices", map[string]string{"paymentId": paymentID}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *TestClient) InvoiceForPayment(t *testing.T, paymentID string) (*Invoice, error) {
	var inv Invoice
	if err := c.do(t, http.MethodGet, "/invoices?paymentId="+paymentID, nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *TestClient) UpdateInvoiceStatus(t *testing.T, id, status string) (*Invoice, error) {
	var inv Invoice
	if err := c.do(t, http.MethodPatch, "/invoices/"+id, map[string]string{"status": status}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *TestClient) Healthy() bool {
	resp, err := c.httpClient.Get(c.baseURL + "/healthz")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
