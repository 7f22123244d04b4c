package agents

import (
	"regexp"
	"strconv"
	"strings"
)

// Miner extracts structured signals from free-form model output.
// Implementations are best-effort heuristics, not parsers: input is
// unstructured text and extraction must never fail.
type Miner interface {
	// Confidence returns the stated confidence in [0,100], or the
	// miner's default when no confidence phrase is found.
	Confidence(text string) float64

	// Points returns the bullet/numbered points of the text, marker
	// stripped, in text order, truncated and capped.
	Points(text string) []string
}

// Confidence phrases are searched in priority order; the first
// matching pattern wins.
var confidencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`confidence\s*(?:level)?[:\s]*(\d+)%`),
	regexp.MustCompile(`(\d+)%\s*confiden`),
	regexp.MustCompile(`confidence[:\s]*(\d+)`),
}

var bulletMarker = regexp.MustCompile(`^[•\-*\d.]+\s*`)

// RegexMiner is the documented regex-based Miner.
type RegexMiner struct {
	defaultConfidence float64
	maxPoints         int
	maxPointLen       int
	minPointLen       int
}

// Defaults when no confidence can be mined from the text. The
// arbiter also applies the verdict default to structured output
// that omits the score.
const (
	defaultArgumentConfidence = 65
	defaultVerdictConfidence  = 50
)

// NewArgumentMiner returns the miner used on producer arguments:
// default confidence 65, up to 5 points of at most 150 characters.
func NewArgumentMiner() *RegexMiner {
	return &RegexMiner{
		defaultConfidence: defaultArgumentConfidence,
		maxPoints:         5,
		maxPointLen:       150,
		minPointLen:       10,
	}
}

// NewVerdictMiner returns the miner used on arbiter output: default
// confidence 50, up to 5 factors with a longer 200-character cap.
func NewVerdictMiner() *RegexMiner {
	return &RegexMiner{
		defaultConfidence: defaultVerdictConfidence,
		maxPoints:         5,
		maxPointLen:       200,
		minPointLen:       10,
	}
}

// Confidence implements Miner. Idempotent on identical input.
func (m *RegexMiner) Confidence(text string) float64 {
	lower := strings.ToLower(text)

	for _, pattern := range confidencePatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}

		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}

		return clampConfidence(value)
	}

	return m.defaultConfidence
}

// Points implements Miner.
func (m *RegexMiner) Points(text string) []string {
	var points []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !hasBulletMarker(line) {
			continue
		}

		clean := strings.TrimSpace(bulletMarker.ReplaceAllString(line, ""))
		if len(clean) <= m.minPointLen {
			continue
		}

		points = append(points, truncateRunes(clean, m.maxPointLen))
		if len(points) == m.maxPoints {
			break
		}
	}

	return points
}

func hasBulletMarker(line string) bool {
	if line == "" {
		return false
	}

	switch line[0] {
	case '-', '*':
		return true
	}

	if strings.HasPrefix(line, "•") {
		return true
	}

	// Numbered list: "1. ", "12. "
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}

	return i > 0 && i < len(line) && line[i] == '.'
}

func clampConfidence(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
