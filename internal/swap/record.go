package swap

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ThetaSpace/SwapBook-Market-Engine/internal/amount"
)

// LegRecord is the wire shape of a swap leg
type LegRecord struct {
	Contract string `json:"contract"`
	Amount   string `json:"amount"`
	Provider string `json:"provider"`
}

// Record is the wire shape of a swap as returned by the swap contract
//
// Numbers are hex strings:
//   - id: "0x1f"
//   - amount: raw integer, e.g. "0xde0b6b3a7640000"
//   - timestamp_swap: microseconds since epoch
type Record struct {
	ID            string    `json:"id"`
	Maker         LegRecord `json:"maker"`
	Taker         LegRecord `json:"taker"`
	Status        string    `json:"status"`
	TimestampSwap string    `json:"timestamp_swap"`
}

// Decode converts the wire record into a RawSwap
func (r Record) Decode() (RawSwap, error) {
	maker, err := r.Maker.decode()
	if err != nil {
		return RawSwap{}, fmt.Errorf("failed to decode maker of swap %s: %w", r.ID, err)
	}
	taker, err := r.Taker.decode()
	if err != nil {
		return RawSwap{}, fmt.Errorf("failed to decode taker of swap %s: %w", r.ID, err)
	}

	status := Status(r.Status)
	if !status.Valid() {
		return RawSwap{}, fmt.Errorf("swap %s has unknown status %q", r.ID, r.Status)
	}

	var ts time.Time
	if r.TimestampSwap != "" {
		micros, err := hexutil.DecodeUint64(r.TimestampSwap)
		if err != nil {
			return RawSwap{}, fmt.Errorf("failed to decode timestamp of swap %s: %w", r.ID, err)
		}
		ts = time.UnixMicro(int64(micros)).UTC()
	}

	return RawSwap{
		ID:        r.ID,
		Maker:     maker,
		Taker:     taker,
		Status:    status,
		Timestamp: ts,
	}, nil
}

func (l LegRecord) decode() (Leg, error) {
	a, err := amount.FromRaw(l.Amount, 0)
	if err != nil {
		return Leg{}, err
	}
	return Leg{Contract: l.Contract, Amount: a, Provider: l.Provider}, nil
}

// EncodeRecord is the inverse of Record.Decode
func EncodeRecord(s RawSwap) Record {
	var ts string
	if !s.Timestamp.IsZero() {
		ts = hexutil.EncodeUint64(uint64(s.Timestamp.UnixMicro()))
	}
	return Record{
		ID:            s.ID,
		Maker:         encodeLeg(s.Maker),
		Taker:         encodeLeg(s.Taker),
		Status:        string(s.Status),
		TimestampSwap: ts,
	}
}

func encodeLeg(l Leg) LegRecord {
	return LegRecord{Contract: l.Contract, Amount: l.Amount.Hex(0), Provider: l.Provider}
}

// DecodeAll decodes records, stopping at the first invalid one
func DecodeAll(records []Record) ([]RawSwap, error) {
	swaps := make([]RawSwap, 0, len(records))
	for _, r := range records {
		s, err := r.Decode()
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, nil
}
