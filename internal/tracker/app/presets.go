package app

import "fmt"

// Preset is one card in a first-run seed list.
type Preset struct {
	Label    string
	Code     string
	Location string
}

// DefaultPresets is the lab's standard card set: ten lab visitor cards,
// twenty general visitor cards, and three named cards.
func DefaultPresets() []Preset {
	var out []Preset

	for i := 1; i <= 10; i++ {
		loc := "119-1 Cabinet"
		if i > 4 {
			loc = "118-2 Cabinet"
		}
		out = append(out, Preset{
			Label:    fmt.Sprintf("Lab Visitor %d", i),
			Code:     fmt.Sprintf("%04d", 1000+i),
			Location: loc,
		})
	}

	for i := 1; i <= 20; i++ {
		loc := "Second Floor Admin"
		if i > 10 {
			loc = "Third Floor Admin"
		}
		out = append(out, Preset{
			Label:    fmt.Sprintf("Visitor %d", i),
			Code:     fmt.Sprintf("%04d", 2000+i),
			Location: loc,
		})
	}

	out = append(out,
		Preset{Label: "JHSC", Code: "3001", Location: "118-1 Cabinet"},
		Preset{Label: "PHE 2", Code: "3002", Location: "118-1 Cabinet"},
		Preset{Label: "Lab Manager Card", Code: "9000", Location: "Lab Manager's Office"},
	)

	return out
}
