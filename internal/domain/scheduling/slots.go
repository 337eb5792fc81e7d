package scheduling

// TimeSlots is the clinic booking grid: morning 09:30-15:30 and evening
// 18:00-20:30 in 30-minute steps. Slot values are stored as HH:MM strings.
var TimeSlots = []string{
	"09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
	"13:00", "13:30", "14:00", "14:30", "15:00", "15:30",
	"18:00", "18:30", "19:00", "19:30", "20:00", "20:30",
}

var slotSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(TimeSlots))
	for _, s := range TimeSlots {
		m[s] = struct{}{}
	}
	return m
}()

// IsValidSlot reports whether slot is one of the bookable time slots.
func IsValidSlot(slot string) bool {
	_, ok := slotSet[slot]
	return ok
}

// PartitionSlots splits the full slot grid into booked and available lists,
// preserving grid order in both. Slots in taken that are not part of the grid
// are ignored.
func PartitionSlots(taken []string) (booked, available []string) {
	takenSet := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		takenSet[s] = struct{}{}
	}
	booked = make([]string, 0, len(taken))
	available = make([]string, 0, len(TimeSlots))
	for _, s := range TimeSlots {
		if _, ok := takenSet[s]; ok {
			booked = append(booked, s)
		} else {
			available = append(available, s)
		}
	}
	return booked, available
}
