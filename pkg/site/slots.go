package site

import "regexp"

// slotTimePattern matches a rendered slot label such as "3:00 PM". The
// panel also renders headings and a "No free times" notice; only lines
// carrying a clock time are slots.
var slotTimePattern = regexp.MustCompile(`\d{1,2}:\d{2}`)

// ExtractSlotTimes pulls the free time-slot labels out of the slot
// panel's HTML.
func ExtractSlotTimes(panelHTML string) ([]string, error) {
	lines, err := FlattenHTML(panelHTML)
	if err != nil {
		return nil, err
	}

	var slots []string
	for _, line := range lines {
		if slotTimePattern.MatchString(line) {
			slots = append(slots, line)
		}
	}
	return slots, nil
}
