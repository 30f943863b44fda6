package http

import (
	"testing"

	"kitabu/internal/core"
)

func ledgerInput(desc, amount string) core.Input {
	return core.Input{Description: desc, Amount: amount}
}

func ledgerInputCat(desc, amount, category string) core.Input {
	return core.Input{Description: desc, Amount: amount, Category: category}
}

func mustMoney(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}
