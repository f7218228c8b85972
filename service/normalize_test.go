package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArtikul(t *testing.T) {
	tests := []struct {
		name    string
		artikul string
		want    string
	}{
		{name: "dash stripped", artikul: "PK-5396", want: "PK5396"},
		{name: "lowercase folded", artikul: "pk5396", want: "PK5396"},
		{name: "space stripped", artikul: "PK 5396", want: "PK5396"},
		{name: "dots stripped", artikul: "a.b.c", want: "ABC"},
		{name: "newline stripped", artikul: "PK\n5396", want: "PK5396"},
		{name: "carriage return stripped", artikul: "PK\r\n5396", want: "PK5396"},
		{name: "nbsp stripped", artikul: "PK\u00a05396", want: "PK5396"},
		{name: "mixed", artikul: " pk-53.96 ", want: "PK5396"},
		{name: "empty", artikul: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeArtikul(tt.artikul))
		})
	}
}

func TestNormalizeArtikul_EquivalentForms(t *testing.T) {
	forms := []string{"PK-5396", "pk5396", "PK 5396", "pk-5396", "P K-53.96"}
	for _, form := range forms {
		assert.Equal(t, "PK5396", NormalizeArtikul(form), "form %q", form)
	}
}

func TestNormalizeClient(t *testing.T) {
	assert.Equal(t, "ACME", NormalizeClient("Acme"))
	assert.Equal(t, "ACME", NormalizeClient("  acme "))
	assert.Equal(t, "", NormalizeClient(""))
}
