package gbif

import "github.com/wildquest-ai/wildquest/internal/session"

// UnknownSpecies is the display name for records with no species field.
const UnknownSpecies = "Unknown Species"

// Classify partitions occurrence records into fauna (kingdom Animalia)
// and flora (kingdom Plantae). Records of any other or missing kingdom
// are dropped; this is a filter, not an error. Input order is preserved
// within each bucket.
func Classify(records []Occurrence) (fauna, flora []session.SpeciesFact) {
	for _, record := range records {
		species := record.Species
		if species == "" {
			species = UnknownSpecies
		}
		image := ""
		if len(record.Media) > 0 {
			image = record.Media[0].Identifier
		}

		fact := session.SpeciesFact{Species: species, Image: image}
		switch record.Kingdom {
		case "Animalia":
			fauna = append(fauna, fact)
		case "Plantae":
			flora = append(flora, fact)
		}
	}
	return fauna, flora
}
