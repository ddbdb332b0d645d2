package core

import (
	"math"
	"strconv"
	"strings"
)

// Output name suffixes.
const (
	CleanedSuffix   = "_cleaned.csv"
	ConvertedSuffix = ".csv"
)

// OutputFileName drops the last extension of name and appends suffix.
func OutputFileName(name, suffix string) string {
	if name == "" {
		if suffix == CleanedSuffix {
			return "cleaned.csv"
		}
		return "converted" + suffix
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 && !strings.ContainsRune(name[i+1:], '/') {
		name = name[:i]
	}
	return name + suffix
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with 1024-based units rounded to two
// decimals, e.g. "0 Bytes", "1.5 KB", "12.34 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	i := 0
	for div := int64(1024); bytes >= div && i < len(sizeUnits)-1; div *= 1024 {
		i++
	}
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
