package podcast

import "testing"

func TestNullSenderDiscardsEvents(t *testing.T) {
	var s Sender = NullSender{}
	s.Send(Event{Type: EventProcessing, Stage: "ingest"})
}

func TestChannelSenderDeliversEvents(t *testing.T) {
	cs := NewChannelSender(2)
	idx, total := 0, 4
	cs.Send(Event{Type: EventSegmentReady, Stage: "tts", SegmentIndex: &idx, TotalSegments: &total})
	cs.Close()

	var got []Event
	for e := range cs.Events {
		got = append(got, e)
	}
	if len(got) != 1 || got[0].Type != EventSegmentReady {
		t.Errorf("events = %+v, want one segment_ready event", got)
	}
}

func TestChannelSenderClosesUnderlyingChannel(t *testing.T) {
	cs := NewChannelSender(1)
	cs.Close()
	if _, ok := <-cs.Events; ok {
		t.Error("expected the channel to be closed with no pending events")
	}
}
