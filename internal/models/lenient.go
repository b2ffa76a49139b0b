package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// lenientInt decodes numbers, numeric strings, "" and null. Browser exports
// store form values verbatim, so `"dailyChapters": "2"` and `"dailyPages": ""`
// both occur.
type lenientInt int

func (n *lenientInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = lenientInt(math.Round(f))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a number, got %s", data)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", s)
	}
	*n = lenientInt(math.Round(f))
	return nil
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	type plain Plan
	var raw struct {
		plain
		DailyChapters lenientInt `json:"dailyChapters"`
		DailyPages    lenientInt `json:"dailyPages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Plan(raw.plain)
	p.DailyChapters = int(raw.DailyChapters)
	p.DailyPages = int(raw.DailyPages)
	return nil
}

func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	var raw struct {
		plain
		Pages         lenientInt `json:"pages"`
		TotalChapters lenientInt `json:"totalChapters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Book(raw.plain)
	b.Pages = int(raw.Pages)
	b.TotalChapters = int(raw.TotalChapters)
	if b.TotalChapters == 0 {
		b.TotalChapters = len(b.AllChapters())
	}
	return nil
}
