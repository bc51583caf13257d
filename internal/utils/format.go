package utils

import (
	"strconv"
	"strings"
)

// FormatWithCommas formats an integer with comma separators (1234567 -> 1,234,567)
func FormatWithCommas(n int64) string {
	str := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(str) % 3
	if lead > 0 {
		b.WriteString(str[:lead])
	}
	for i := lead; i < len(str); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(str[i : i+3])
	}
	return b.String()
}

// CreateRankList creates 1-based ranks for an already sorted result list.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := range ranks {
		if i+1 > 0xFFFF {
			ranks[i] = 0xFFFF
			continue
		}
		ranks[i] = uint16(i + 1)
	}
	return ranks
}
