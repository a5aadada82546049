package availability_service

import "github.com/suchimauz/appointment-availability-engine/internal/core/domain"

type CandidateSlice []domain.CandidateSlot

// quickSort сортирует кандидатов по времени начала
func (s CandidateSlice) quickSort() CandidateSlice {
	if len(s) < 2 {
		return s
	}

	// Выбираем опорный элемент
	pivot := s[len(s)/2]

	less := CandidateSlice{}
	equal := CandidateSlice{}
	greater := CandidateSlice{}

	for _, slot := range s {
		switch {
		case slot.StartTime < pivot.StartTime:
			less = append(less, slot)
		case slot.StartTime == pivot.StartTime:
			equal = append(equal, slot)
		default:
			greater = append(greater, slot)
		}
	}

	return append(append(less.quickSort(), equal...), greater.quickSort()...)
}

// dedupe убирает повторяющиеся начала в отсортированном слайсе
func (s CandidateSlice) dedupe() CandidateSlice {
	if len(s) < 2 {
		return s
	}

	result := s[:1]
	for _, slot := range s[1:] {
		if slot.StartTime != result[len(result)-1].StartTime {
			result = append(result, slot)
		}
	}
	return result
}
