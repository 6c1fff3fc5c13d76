package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/duskvale/patternmarket/internal/exchange"
	"github.com/duskvale/patternmarket/internal/market"
)

func newTestServer(t *testing.T) (*httptest.Server, *exchange.Service) {
	t.Helper()
	params := market.DefaultParams()
	params.ShockProb = 0
	svc := exchange.NewService(exchange.Config{Seed: 1, TrendShockProb: 0, Params: params})
	t.Cleanup(svc.Close)

	ts := httptest.NewServer(New(svc, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestPortfolioAndOrderFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/portfolios", map[string]string{"owner": "alice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create portfolio status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown side.
	resp = postJSON(t, ts.URL+"/v1/orders", map[string]any{
		"owner": "alice", "symbol": "ECHO", "side": "HODL", "quantity": 1,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad side status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown instrument.
	resp = postJSON(t, ts.URL+"/v1/orders", map[string]any{
		"owner": "alice", "symbol": "NOPE", "side": "BUY", "quantity": 1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown instrument status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	// Insufficient funds is a rejection, not a server failure.
	resp = postJSON(t, ts.URL+"/v1/orders", map[string]any{
		"owner": "alice", "symbol": "ECHO", "side": "BUY", "quantity": 1_000_000, "price": 100,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("insufficient funds status = %d, want 422", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/orders", map[string]any{
		"owner": "alice", "symbol": "ECHO", "side": "BUY", "quantity": 5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order status = %d, want 201", resp.StatusCode)
	}
	var placed struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&placed); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	resp.Body.Close()
	if placed.Status != "PENDING" {
		t.Errorf("status = %q, want PENDING", placed.Status)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/v1/orders/"+placed.ID, nil)
	dresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	defer dresp.Body.Close()
	if dresp.StatusCode != http.StatusOK {
		t.Errorf("cancel status = %d, want 200", dresp.StatusCode)
	}
}

func TestMarketAndChallengeEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/market")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	var snap struct {
		Instruments []struct {
			Symbol string  `json:"symbol"`
			Price  float64 `json:"price"`
		} `json:"instruments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode market: %v", err)
	}
	resp.Body.Close()
	if len(snap.Instruments) == 0 {
		t.Fatal("no instruments in market snapshot")
	}
	for _, in := range snap.Instruments {
		if in.Price <= 0 {
			t.Errorf("%s price = %v, want > 0", in.Symbol, in.Price)
		}
	}

	resp = postJSON(t, ts.URL+"/v1/portfolios", map[string]string{"owner": "bob"})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/challenges", map[string]string{"owner": "bob", "type": "SEQUENCE"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("new challenge status = %d, want 201", resp.StatusCode)
	}
	var view struct {
		Difficulty int    `json:"difficulty"`
		Prompt     string `json:"prompt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode challenge: %v", err)
	}
	resp.Body.Close()
	if view.Difficulty != 1 || view.Prompt == "" {
		t.Errorf("challenge = %+v, want difficulty 1 with a prompt", view)
	}

	// Wrong answer is a 422 and leaves the challenge open.
	resp = postJSON(t, ts.URL+"/v1/challenges/solve", map[string]string{
		"owner": "bob", "type": "SEQUENCE", "solution": "not it",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("wrong solve status = %d, want 422", resp.StatusCode)
	}
	resp.Body.Close()

	// No outstanding challenge of this type.
	resp = postJSON(t, ts.URL+"/v1/challenges/solve", map[string]string{
		"owner": "bob", "type": "CIPHER", "solution": "x",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing challenge solve status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}
