package publish

import (
	"encoding/json"
	"testing"

	"sweep-signal-lab/internal/domain"
)

func TestMarshalEnvelope_Signal(t *testing.T) {
	sig := &domain.Signal{
		ID:          "sig1",
		Symbol:      "NQ",
		Side:        domain.SideBuy,
		EntryPrice:  104.5,
		StopLoss:    96,
		TakeProfit:  120,
		Quantity:    1,
		MaxHoldBars: 240,
		TimestampMs: 1_700_000_000_000,
	}

	payload, err := MarshalEnvelope(SignalChannel, sig.TimestampMs, sig)
	if err != nil {
		t.Fatalf("MarshalEnvelope: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	for _, key := range []string{"timestamp", "channel", "data"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("envelope missing key %q", key)
		}
	}

	var channel string
	if err := json.Unmarshal(decoded["channel"], &channel); err != nil || channel != SignalChannel {
		t.Errorf("channel = %q, want %q", channel, SignalChannel)
	}

	var ts int64
	if err := json.Unmarshal(decoded["timestamp"], &ts); err != nil || ts != sig.TimestampMs {
		t.Errorf("timestamp = %d, want %d", ts, sig.TimestampMs)
	}

	var data domain.Signal
	if err := json.Unmarshal(decoded["data"], &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.ID != "sig1" || data.EntryPrice != 104.5 || data.Side != domain.SideBuy {
		t.Errorf("data = %+v", data)
	}
}

func TestMarshalEnvelope_BarClose(t *testing.T) {
	bar := domain.Bar{Symbol: "NQ", TimestampMs: 60_000, Open: 100, High: 102, Low: 99, Close: 101, Volume: 12}

	payload, err := MarshalEnvelope(BarCloseChannel, bar.TimestampMs, bar)
	if err != nil {
		t.Fatalf("MarshalEnvelope: %v", err)
	}

	var decoded struct {
		Timestamp int64      `json:"timestamp"`
		Channel   string     `json:"channel"`
		Data      domain.Bar `json:"data"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if decoded.Channel != BarCloseChannel {
		t.Errorf("channel = %q, want %q", decoded.Channel, BarCloseChannel)
	}
	if decoded.Data != bar {
		t.Errorf("data = %+v, want %+v", decoded.Data, bar)
	}
}
