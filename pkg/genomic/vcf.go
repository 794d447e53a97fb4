package genomic

import (
	"strconv"
	"strings"
)

const defaultVariantQuality = 0.9

// ParseVCF parses tab-separated VCF-style text into Variants.
// Header/comment lines (leading '#') and blank lines are skipped;
// used fields are chromosome, position, id, ref, alt, qual. A missing
// or non-numeric qual renders as defaultVariantQuality.
func ParseVCF(text string) []Variant {
	var variants []Variant
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			continue
		}
		pos, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			continue
		}
		quality := defaultVariantQuality
		if len(fields) > 5 {
			if q, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64); err == nil {
				quality = q
			}
		}
		variants = append(variants, Variant{
			Chromosome: strings.TrimSpace(fields[0]),
			Position:   pos,
			Ref:        strings.TrimSpace(fields[3]),
			Alt:        strings.TrimSpace(fields[4]),
			Quality:    quality,
		})
	}
	return variants
}
