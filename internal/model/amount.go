package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// currencyMarkers are stripped from amount strings before parsing. The
// service is single-currency (INR), so markers carry no information.
var currencyMarkers = []string{"₹", "rs.", "rs", "inr"}

// ParseAmount parses a captured amount such as "12,500", "Rs. 12,500.50" or
// "₹ 900". Thousands separators and currency markers are stripped. Returns nil
// when the remainder is not a decimal number.
func ParseAmount(s string) *decimal.Decimal {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range currencyMarkers {
		s = strings.TrimPrefix(s, m)
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders d as a rupee figure with thousands separators and two
// decimals, e.g. ₹12,500.00.
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return amountPrinter.Sprintf("₹%.2f", f)
}

// jsonAmount renders an amount as a bare JSON number, or null. decimal's own
// encoding quotes it.
type jsonAmount struct {
	d *decimal.Decimal
}

func (a jsonAmount) MarshalJSON() ([]byte, error) {
	if a.d == nil {
		return []byte("null"), nil
	}
	return []byte(a.d.String()), nil
}

func (b BillData) MarshalJSON() ([]byte, error) {
	type plain BillData
	return json.Marshal(struct {
		plain
		TotalAmount jsonAmount `json:"total_amount"`
	}{plain(b), jsonAmount{b.TotalAmount}})
}

func (c IDCardData) MarshalJSON() ([]byte, error) {
	type plain IDCardData
	return json.Marshal(struct {
		plain
		CoverageAmount jsonAmount `json:"coverage_amount"`
	}{plain(c), jsonAmount{c.CoverageAmount}})
}

func (p PharmacyData) MarshalJSON() ([]byte, error) {
	type plain PharmacyData
	return json.Marshal(struct {
		plain
		TotalAmount jsonAmount `json:"total_amount"`
	}{plain(p), jsonAmount{p.TotalAmount}})
}

func (f ClaimFormData) MarshalJSON() ([]byte, error) {
	type plain ClaimFormData
	return json.Marshal(struct {
		plain
		ClaimAmount jsonAmount `json:"claim_amount"`
	}{plain(f), jsonAmount{f.ClaimAmount}})
}

func (d ClaimDecision) MarshalJSON() ([]byte, error) {
	type plain ClaimDecision
	return json.Marshal(struct {
		plain
		ApprovedAmount jsonAmount `json:"approved_amount"`
	}{plain(d), jsonAmount{d.ApprovedAmount}})
}
