package pje

import "testing"

const resultPage = `<html><body><table>
<tr><td><a href="javascript:openPopUp('popup','/pje/ConsultaPublica/DetalheProcessoConsultaPublica/listView.seam?ca=abc')">
  5001234-56.2024.8.13.0024 - Obrigação de Fazer - Fornecimento de medicamento</a></td></tr>
<tr><td><a href="/pje/ConsultaPublica/DetalheProcessoConsultaPublica/listView.seam?ca=def">1234567-89.2023.8.13.0702 - Cirurgia bariátrica</a></td></tr>
<tr><td><a href="/pje/ConsultaPublica/DetalheProcessoConsultaPublica/listView.seam?ca=ghi">sem número</a></td></tr>
<tr><td><a href="/outra/pagina">7654321-00.2023.8.13.0001 - Fora do padrão</a></td></tr>
</table></body></html>`

func TestParseListings(t *testing.T) {
	got, err := ParseListings(resultPage, "https://pje-consulta-publica.tjmg.jus.br/", "Secretaria de Saúde", 0)
	if err != nil {
		t.Fatalf("ParseListings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}

	first := got[0]
	if first.Number != "5001234-56.2024.8.13.0024" {
		t.Errorf("number = %q", first.Number)
	}
	if first.Subject != "Fornecimento de medicamento" {
		t.Errorf("subject = %q", first.Subject)
	}
	if first.URL != "https://pje-consulta-publica.tjmg.jus.br/pje/ConsultaPublica/DetalheProcessoConsultaPublica/listView.seam?ca=abc" {
		t.Errorf("popup url = %q", first.URL)
	}
	if first.Term != "Secretaria de Saúde" {
		t.Errorf("term = %q", first.Term)
	}
	if got[1].Subject != "Cirurgia bariátrica" {
		t.Errorf("subject = %q", got[1].Subject)
	}
}

func TestParseListingsLimit(t *testing.T) {
	got, err := ParseListings(resultPage, "https://example.org/", "x", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text     string
		wantKind string
		wantVal  float64
	}{
		{"Pedido de CIRURGIA cardíaca", "cirurgia", 50000},
		{"fornecimento de medicamento de alto custo", "medicamento", 17500},
		{"vaga em leito de UTI", "internacao", 30000},
		{"transferência para UTI neonatal", "uti", 65000},
		{"tratamento de câncer", "quimioterapia", 37500},
		{"sessões de radioterapia", "radioterapia", 25000},
		{"realização de ressonância magnética", "exame", 3000},
		{"sessões de fisioterapia", "tratamento", 15000},
		{"assunto genérico", "tratamento", 15000},
	}
	for _, tt := range tests {
		kind, val := Classify(tt.text)
		if kind != tt.wantKind || val != tt.wantVal {
			t.Errorf("Classify(%q) = (%q, %v), want (%q, %v)", tt.text, kind, val, tt.wantKind, tt.wantVal)
		}
	}
}

func TestIsFavorable(t *testing.T) {
	if !IsFavorable("Ante o exposto, JULGO PROCEDENTE o pedido") {
		t.Error("expected favorable")
	}
	if !IsFavorable("Defiro a tutela de urgência") {
		t.Error("expected favorable")
	}
	if IsFavorable("Nego provimento ao recurso") {
		t.Error("expected unfavorable")
	}
}

func TestExtractMunicipality(t *testing.T) {
	if got := ExtractMunicipality("Órgão julgador: Comarca: Uberlândia - 2ª Vara"); got != "Uberlândia" {
		t.Errorf("got %q", got)
	}
	if got := ExtractMunicipality("sem indicação"); got != "Belo Horizonte" {
		t.Errorf("fallback = %q", got)
	}
}

func TestPatientHash(t *testing.T) {
	h := PatientHash("5001234-56.2024.8.13.0024")
	if len(h) != 16 {
		t.Fatalf("len = %d", len(h))
	}
	if h == PatientHash("1234567-89.2023.8.13.0702") {
		t.Fatal("different cases share a hash")
	}
}

func TestExtractText(t *testing.T) {
	got, err := ExtractText(`<html><head><script>var x = 1;</script></head><body><p>Julgo
	procedente</p><style>p{}</style></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Julgo procedente" {
		t.Fatalf("got %q", got)
	}
}
