package gbif

import "testing"

func TestClassifyPartitionsByKingdom(t *testing.T) {
	records := []Occurrence{
		{Kingdom: "Animalia", Species: "Vulpes vulpes", Media: []Media{{Identifier: "http://img/fox.jpg"}}},
		{Kingdom: "Plantae", Species: "Quercus robur"},
		{Kingdom: "Fungi", Species: "Amanita muscaria"},
		{Kingdom: "Animalia", Species: "Aquila chrysaetos"},
		{Species: "No kingdom at all"},
	}

	fauna, flora := Classify(records)

	if len(fauna) != 2 {
		t.Fatalf("expected 2 fauna entries, got %d", len(fauna))
	}
	if fauna[0].Species != "Vulpes vulpes" || fauna[1].Species != "Aquila chrysaetos" {
		t.Errorf("fauna order not preserved: %+v", fauna)
	}
	if fauna[0].Image != "http://img/fox.jpg" {
		t.Errorf("expected first media identifier as image, got %q", fauna[0].Image)
	}
	if fauna[1].Image != "" {
		t.Errorf("expected empty image for record without media, got %q", fauna[1].Image)
	}

	if len(flora) != 1 || flora[0].Species != "Quercus robur" {
		t.Errorf("unexpected flora: %+v", flora)
	}

	if len(fauna)+len(flora) > len(records) {
		t.Error("output count must not exceed input count")
	}
}

func TestClassifyMissingSpeciesUsesSentinel(t *testing.T) {
	fauna, flora := Classify([]Occurrence{{Kingdom: "Animalia"}})
	if len(fauna) != 1 {
		t.Fatalf("expected 1 fauna entry, got %d", len(fauna))
	}
	if fauna[0].Species != UnknownSpecies {
		t.Errorf("expected sentinel species name, got %q", fauna[0].Species)
	}
	if len(flora) != 0 {
		t.Errorf("expected no flora, got %+v", flora)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	fauna, flora := Classify(nil)
	if len(fauna) != 0 || len(flora) != 0 {
		t.Errorf("expected empty outputs for empty input, got %+v / %+v", fauna, flora)
	}
}
