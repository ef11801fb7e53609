package trade

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"dex-trader-go/order"
)

// PairSpec 交易对的链上参数，按配置中的符号索引。
type PairSpec struct {
	TokenAsset      common.Address
	PaymentAsset    common.Address
	TokenDecimals   int32
	PaymentDecimals int32
}

// EventSink 接收工作流的结构化日志事件；infrastructure/logger.Logger 实现。
type EventSink interface {
	LogOrder(event string, orderID string, fields map[string]interface{})
	LogTx(event string, txHash string, fields map[string]interface{})
}

type nopSink struct{}

func (nopSink) LogOrder(string, string, map[string]interface{}) {}
func (nopSink) LogTx(string, string, map[string]interface{})    {}

// API 暴露下单/撤单的 HTTP 控制面，前端经由它驱动工作流。
type API struct {
	sub   *Submitter
	pairs map[string]PairSpec
	sink  EventSink
}

func NewAPI(sub *Submitter, pairs map[string]PairSpec, sink EventSink) *API {
	if sink == nil {
		sink = nopSink{}
	}
	return &API{sub: sub, pairs: pairs, sink: sink}
}

// Register 挂载控制面路由。
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/orders", a.handleSubmit)
	mux.HandleFunc("/api/v1/orders/cancel", a.handleCancel)
}

type submitRequest struct {
	Pair   string `json:"pair"`
	Side   string `json:"side"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Price  string `json:"price"`
}

type submitResponse struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	OrderID     string `json:"orderId,omitempty"`
	ApprovalTx  string `json:"approvalTx,omitempty"`
}

type cancelRequest struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, invalidInput("invalid json body: "+err.Error()))
		return
	}
	spec, ok := a.pairs[req.Pair]
	if !ok {
		writeFailure(w, invalidInput("unknown pair "+req.Pair))
		return
	}
	side, err := order.ParseSide(req.Side)
	if err != nil {
		writeFailure(w, invalidInput(err.Error()))
		return
	}
	typ, err := order.ParseType(req.Type)
	if err != nil {
		writeFailure(w, invalidInput(err.Error()))
		return
	}

	a.sink.LogOrder("order_submit", "", map[string]interface{}{
		"symbol": req.Pair,
		"side":   side.String(),
		"type":   typ.String(),
		"amount": req.Amount,
		"price":  req.Price,
	})

	res, err := a.sub.Submit(r.Context(), TradeParams{
		TokenAsset:      spec.TokenAsset,
		PaymentAsset:    spec.PaymentAsset,
		TokenDecimals:   spec.TokenDecimals,
		PaymentDecimals: spec.PaymentDecimals,
		Amount:          req.Amount,
		Price:           req.Price,
		Type:            typ,
		Side:            side,
	})
	if err != nil {
		a.logFailure(err)
		writeFailure(w, err)
		return
	}

	resp := submitResponse{TxHash: res.TxHash.Hex(), BlockNumber: res.BlockNumber}
	if res.OrderID != nil {
		resp.OrderID = res.OrderID.String()
	}
	if res.ApprovalTx != nil {
		resp.ApprovalTx = res.ApprovalTx.Hex()
		a.sink.LogTx("approval_sent", res.ApprovalTx.Hex(), map[string]interface{}{
			"asset":   approvalAsset(side, spec).Hex(),
			"spender": a.sub.Venue().Hex(),
			"amount":  res.ApprovalAmount.String(),
		})
	}
	a.sink.LogTx("order_confirmed", res.TxHash.Hex(), map[string]interface{}{
		"symbol":      req.Pair,
		"txHash":      res.TxHash.Hex(),
		"blockNumber": res.BlockNumber,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, invalidInput("invalid json body: "+err.Error()))
		return
	}
	id, ok := new(big.Int).SetString(req.ID, 10)
	if !ok {
		writeFailure(w, invalidInput("invalid order id "+req.ID))
		return
	}

	res, err := a.sub.Cancel(r.Context(), id)
	if err != nil {
		a.logFailure(err)
		writeFailure(w, err)
		return
	}
	a.sink.LogTx("order_cancel", res.TxHash.Hex(), map[string]interface{}{
		"orderId": id.String(),
		"txHash":  res.TxHash.Hex(),
	})
	writeJSON(w, http.StatusOK, submitResponse{
		TxHash:      res.TxHash.Hex(),
		BlockNumber: res.BlockNumber,
		OrderID:     id.String(),
	})
}

func (a *API) logFailure(err error) {
	a.sink.LogOrder("submit_failed", "", map[string]interface{}{
		"code":   codeString(err),
		"reason": err.Error(),
	})
}

// codeString 把非分类的互斥错误也映射成稳定的错误码字符串。
func codeString(err error) string {
	if errors.Is(err, ErrSubmitInFlight) {
		return "SubmitInFlight"
	}
	return string(CodeOf(err))
}

func approvalAsset(side order.Side, spec PairSpec) common.Address {
	if side == order.SideBuy {
		return spec.PaymentAsset
	}
	return spec.TokenAsset
}

func writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrSubmitInFlight):
		status = http.StatusConflict
	case CodeOf(err) == CodeInvalidInput:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Code: codeString(err), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
