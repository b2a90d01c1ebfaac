package batch

import "strings"

// NormalizePhone turns a spreadsheet cell into +<digits>. ok is false for cells that
// hold no usable number. Ten-digit numbers are taken as North American and get a leading 1.
func NormalizePhone(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "nan", "none":
		return "", false
	}
	// Spreadsheet numeric cells may come through as 5551234567.0
	if i := strings.IndexByte(cell, '.'); i > 0 && allDigits(cell[:i]) && strings.Trim(cell[i+1:], "0") == "" {
		cell = cell[:i]
	}

	var b strings.Builder
	for _, r := range cell {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 {
		return "", false
	}
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "+" + digits, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ExtractPhoneNumbers normalizes the named column. Invalid cells are counted in dropped, not returned.
func ExtractPhoneNumbers(s Sheet, column string) (numbers []string, dropped int, err error) {
	cells, err := s.Column(column)
	if err != nil {
		return nil, 0, err
	}
	for _, c := range cells {
		n, ok := NormalizePhone(c)
		if !ok {
			dropped++
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers, dropped, nil
}
