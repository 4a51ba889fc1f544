package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/openprocure/tenderflow/internal/model"
)

func TestTruncateCutsOnRuneBoundaries(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Road…", truncate("Road maintenance", 5))

	// Multi-byte titles must never be cut mid-rune.
	got := truncate("Hôpital général de Paris", 12)
	assert.Equal(t, "Hôpital gén…", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate(strings.Repeat("é", 30), 10)
	assert.Equal(t, strings.Repeat("é", 9)+"…", got)
	assert.True(t, utf8.ValidString(got))
}

func TestFormatBudget(t *testing.T) {
	assert.Equal(t, "-", formatBudget(model.Budget{}))
	assert.Equal(t, "125000 EUR", formatBudget(model.Budget{Amount: 125000, Currency: "EUR"}))
}
