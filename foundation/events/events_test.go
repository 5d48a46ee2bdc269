package events_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to broadcast node events.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering two receivers.", testID)
		{
			evts := events.New()

			ch1 := evts.Acquire("one")
			ch2 := evts.Acquire("two")

			if again := evts.Acquire("one"); again != ch1 {
				t.Fatalf("\t%s\tTest %d:\tShould get back the same channel for the same id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the same channel for the same id.", success, testID)

			evts.Send("block mined")

			for _, ch := range []chan string{ch1, ch2} {
				if msg := <-ch; msg != "block mined" {
					t.Fatalf("\t%s\tTest %d:\tShould receive the event, got %q.", failed, testID, msg)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould receive the event on every channel.", success, testID)

			if err := evts.Release("one"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to release a receiver: %v", failed, testID, err)
			}
			if _, open := <-ch1; open {
				t.Fatalf("\t%s\tTest %d:\tShould close the released channel.", failed, testID)
			}
			if err := evts.Release("one"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not release an unknown receiver.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to release a receiver once.", success, testID)

			evts.Shutdown()
			if _, open := <-ch2; open || evts.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould close every channel on shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close every channel on shutdown.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a receiver is not keeping up.", testID)
		{
			evts := events.New()
			ch := evts.Acquire("slow")

			for i := 0; i < 500; i++ {
				evts.Send("event")
			}

			if n := len(ch); n == 0 || n == 500 {
				t.Fatalf("\t%s\tTest %d:\tShould drop events beyond the buffer, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould drop events beyond the buffer without blocking.", success, testID)
		}
	}
}
