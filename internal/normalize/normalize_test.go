package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"José", "jose"},
		{"JOSE", "jose"},
		{"Remunerações Diárias", "remuneracoes diarias"},
		{"NÃO", "nao"},
		{"Coletas/Entregas", "coletas/entregas"},
		{"Motorista: João da Silva", "motorista: joao da silva"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestFold_Idempotent(t *testing.T) {
	for _, s := range []string{"José DA SILVA ", "ÇÃÕ ñ ü", "plain", "R$ 1.234,56"} {
		once := Fold(s)
		assert.Equal(t, once, Fold(once), s)
	}
}

func TestFold_CaseAndAccentInsensitive(t *testing.T) {
	assert.Equal(t, Fold("José"), Fold("JOSE"))
	assert.Equal(t, Fold("JOSÉ DA SILVA"), Fold("jose da silva"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("  REMUNERAÇÕES DIÁRIAS  ", "remuneracoes diarias"))
	assert.True(t, Contains("Entrega realizada: Sim", "sim"))
	assert.False(t, Contains("Entrega realizada", "nao"))
}

func TestCleanLine(t *testing.T) {
	assert.Equal(t, "01/01/2024  R$ 10,00", CleanLine("01/01/2024\tR$ 10,00  \r\n"))
	assert.Equal(t, "a    b", CleanLine("a    b"))
}
