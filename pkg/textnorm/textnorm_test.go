package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "blank", in: " \t\n ", want: ""},
		{name: "accents", in: "Produtos com estoque baixo até 8", want: "produtos com estoque baixo ate 8"},
		{name: "cedilla", in: "Visão Geral da Operação", want: "visao geral da operacao"},
		{name: "collapse", in: "  pedidos   \t pendentes\n", want: "pedidos pendentes"},
		{name: "symbols kept", in: "Estoque <= 10!", want: "estoque <= 10!"},
		{name: "already canonical", in: "cliente carla", want: "cliente carla"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q)=%q want=%q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Últimos PEDIDOS concluídos",
		"  Não   finalizados  ",
		"Ação, Coração & Pão",
		"low stock 12",
		"ÅÉÎÕÜ çñ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("in=%q once=%q twice=%q", in, once, twice)
		}
	}
}
