// Package align assigns diarization speakers to transcription segments.
package align

import "github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"

// Overlap returns the length of the intersection of [aStart,aEnd] and
// [bStart,bEnd], clamped to zero.
func Overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Align pairs every segment with the turn it overlaps the most. Only a
// strictly greater overlap replaces the current best, so on ties the turn
// seen first wins. Segments without any positive overlap get a nil speaker.
// Segment bounds and text are copied through unchanged.
func Align(segments []models.TranscriptionSegment, turns []models.SpeakerTurn) []models.AlignedSegment {
	aligned := make([]models.AlignedSegment, 0, len(segments))

	for _, seg := range segments {
		var (
			best        *string
			bestOverlap float64
		)
		for i := range turns {
			ov := Overlap(seg.Start, seg.End, turns[i].Start, turns[i].End)
			if ov > bestOverlap {
				bestOverlap = ov
				speaker := turns[i].Speaker
				best = &speaker
			}
		}

		aligned = append(aligned, models.AlignedSegment{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: best,
			Text:    seg.Text,
		})
	}

	return aligned
}

// Speakers returns the distinct speaker labels of aligned segments in
// first-seen order.
func Speakers(aligned []models.AlignedSegment) []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, seg := range aligned {
		if seg.Speaker == nil || seen[*seg.Speaker] {
			continue
		}
		seen[*seg.Speaker] = true
		speakers = append(speakers, *seg.Speaker)
	}
	return speakers
}
