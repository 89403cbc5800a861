// Package api holds the JSON request and response bodies shared by the
// HTTP handlers and the Go client.
package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/vbonduro/parrotops/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type BinsResponse struct {
	Bins []*domain.Bin `json:"bins"`
}

type BinResponse struct {
	Bin  *domain.Bin   `json:"bin"`
	Lots []*domain.Lot `json:"lots"`
}

type LotsResponse struct {
	Lots []*domain.Lot `json:"lots"`
}

type LotResponse struct {
	Lot *domain.Lot `json:"lot"`
}

type CreateLotRequest struct {
	BinID     Text `json:"binId"`
	LotID     Text `json:"lotId"`
	Title     Text `json:"title,omitempty"`
	Status    Text `json:"status,omitempty"`
	Buyer     Text `json:"buyer,omitempty"`
	FolderURL Text `json:"folderUrl,omitempty"`
}

type CreateLotResponse struct {
	Success bool   `json:"success"`
	LotID   string `json:"lotId"`
	BinID   string `json:"binId"`
}

type MoveLotRequest struct {
	LotID       Text `json:"lotId"`
	TargetBinID Text `json:"targetBinId"`
}

type MoveLotResponse struct {
	Success     bool   `json:"success"`
	LotID       string `json:"lotId"`
	TargetBinID string `json:"targetBinId"`
}

// CleanBinRequest marks the bin EMPTY unless SetEmpty is explicitly false.
type CleanBinRequest struct {
	BinID    Text  `json:"binId"`
	SetEmpty *Flag `json:"setEmpty,omitempty"`
}

type CleanBinResponse struct {
	Success  bool `json:"success"`
	Cleaned  int  `json:"cleaned"`
	SetEmpty bool `json:"setEmpty"`
}

type ZoneLayoutResponse = domain.ZoneLayout

type SaveZonesRequest struct {
	Zones []ZonePayload `json:"zones"`
}

type SaveZonesResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

type JournalResponse struct {
	Entries []*domain.JournalEntry `json:"entries"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

// ZonePayload is a zone as posted by a client. Coordinates may arrive as
// numbers or numeric strings.
type ZonePayload struct {
	ZoneID Text    `json:"zoneId"`
	X      *Number `json:"x,omitempty"`
	Y      *Number `json:"y,omitempty"`
	W      *Number `json:"w,omitempty"`
	H      *Number `json:"h,omitempty"`
	Active *Flag   `json:"active,omitempty"`
}

// PayloadFromZone converts a zone for posting.
func PayloadFromZone(z domain.Zone) ZonePayload {
	active := Flag(z.Active)
	return ZonePayload{
		ZoneID: Text(z.ZoneID),
		X:      NewNumber(z.X),
		Y:      NewNumber(z.Y),
		W:      NewNumber(z.W),
		H:      NewNumber(z.H),
		Active: &active,
	}
}

// Number is a finite JSON number, or a string holding one. Anything else
// decodes as not Valid instead of failing the whole body.
type Number struct {
	Value float64
	Valid bool
}

func NewNumber(v float64) *Number {
	return &Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	} else {
		raw = string(data)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.Value, n.Valid = v, true
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// Float returns the value, or nil when n is absent or not Valid.
func (n *Number) Float() *float64 {
	if n == nil || !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Text is a string field that also accepts a JSON number or boolean, taken
// as its literal text. null, objects and arrays decode as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*t = Text(s)
		}
	case 't', 'f':
		if v, err := strconv.ParseBool(string(data)); err == nil {
			*t = Text(strconv.FormatBool(v))
		}
	case 'n', '{', '[':
	default:
		if v, err := strconv.ParseFloat(string(data), 64); err == nil {
			*t = Text(strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return nil
}

// Flag is true for any JSON value except the literal false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag(!bytes.Equal(bytes.TrimSpace(data), []byte("false")))
	return nil
}

// Bool returns the flag, or nil when it was absent.
func (f *Flag) Bool() *bool {
	if f == nil {
		return nil
	}
	b := bool(*f)
	return &b
}
