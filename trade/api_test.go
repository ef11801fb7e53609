package trade

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"dex-trader-go/chain"
	"dex-trader-go/monitor/logschema"
)

// recordingSink 记录事件并顺带校验 schema 必填字段
type recordingSink struct {
	events []string
	errs   []error
}

func (r *recordingSink) LogOrder(event, _ string, fields map[string]interface{}) {
	r.record(event, fields)
}

func (r *recordingSink) LogTx(event, _ string, fields map[string]interface{}) {
	r.record(event, fields)
}

func (r *recordingSink) record(event string, fields map[string]interface{}) {
	r.events = append(r.events, event)
	if err := logschema.Validate(event, fields); err != nil {
		r.errs = append(r.errs, err)
	}
}

func newAPIHarness(t *testing.T, allowanceWei *big.Int) (*harness, *recordingSink, *httptest.Server) {
	t.Helper()
	h := newHarness(t, allowanceWei, true)
	sink := &recordingSink{}
	api := NewAPI(h.sub, map[string]PairSpec{
		"AAPLX/USDC": {
			TokenAsset:      tokenAddr,
			PaymentAsset:    paymentAddr,
			TokenDecimals:   18,
			PaymentDecimals: 18,
		},
	}, sink)
	mux := http.NewServeMux()
	api.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return h, sink, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func TestAPISubmitWithApproval(t *testing.T) {
	h, sink, srv := newAPIHarness(t, wei("0"))

	resp := postJSON(t, srv.URL+"/api/v1/orders", submitRequest{
		Pair: "AAPLX/USDC", Side: "BUY", Type: "LIMIT", Amount: "10", Price: "2.00",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got submitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotEmpty(t, got.TxHash)
	require.NotEmpty(t, got.ApprovalTx)
	require.Equal(t, "7", got.OrderID)
	require.Equal(t, []string{"allowance", "approve", "createOrder"}, h.calls)

	require.Equal(t, []string{"order_submit", "approval_sent", "order_confirmed"}, sink.events)
	require.Empty(t, sink.errs, "schema validation failed: %v", sink.errs)
}

func TestAPISubmitSkipsApproval(t *testing.T) {
	h, sink, srv := newAPIHarness(t, wei("21000000000000000000"))

	resp := postJSON(t, srv.URL+"/api/v1/orders", submitRequest{
		Pair: "AAPLX/USDC", Side: "BUY", Type: "LIMIT", Amount: "10", Price: "2.00",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"allowance", "createOrder"}, h.calls)
	require.Equal(t, []string{"order_submit", "order_confirmed"}, sink.events)
	require.Empty(t, sink.errs)
}

func TestAPISubmitRejectsUnknownPair(t *testing.T) {
	h, _, srv := newAPIHarness(t, wei("0"))

	resp := postJSON(t, srv.URL+"/api/v1/orders", submitRequest{
		Pair: "DOGE/USDC", Side: "BUY", Type: "LIMIT", Amount: "1", Price: "1",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, string(CodeInvalidInput), got.Code)
	require.Empty(t, h.calls, "no network calls on invalid input")
}

func TestAPISubmitReportsFailureCode(t *testing.T) {
	h, sink, srv := newAPIHarness(t, wei("21000000000000000000"))
	h.book.createErr = &chain.Error{Kind: chain.KindReverted, Op: "createOrder", Reason: "inactive pair"}

	resp := postJSON(t, srv.URL+"/api/v1/orders", submitRequest{
		Pair: "AAPLX/USDC", Side: "BUY", Type: "LIMIT", Amount: "10", Price: "2.00",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, string(CodeOrderReverted), got.Code)
	require.Contains(t, sink.events, "submit_failed")
	require.Empty(t, sink.errs)
}

func TestAPICancel(t *testing.T) {
	h, sink, srv := newAPIHarness(t, wei("0"))

	resp := postJSON(t, srv.URL+"/api/v1/orders/cancel", cancelRequest{ID: "42"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, h.book.cancelled)
	require.Equal(t, []string{"order_cancel"}, sink.events)
	require.Empty(t, sink.errs)
}

func TestAPIMethodNotAllowed(t *testing.T) {
	_, _, srv := newAPIHarness(t, wei("0"))
	resp, err := http.Get(srv.URL + "/api/v1/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
