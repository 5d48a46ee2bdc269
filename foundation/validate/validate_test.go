package validate_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type newTx struct {
	Sender    *string  `json:"sender" validate:"required"`
	Recipient *string  `json:"recipient" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required"`
}

func Test_Check(t *testing.T) {
	sender := "alice"
	recipient := "bob"
	var zero float64

	t.Log("Given the need to validate request models.")
	{
		t.Logf("\tTest 0:\tWhen all fields are present.")
		{
			if err := validate.Check(newTx{Sender: &sender, Recipient: &recipient, Amount: &zero}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept a zero amount that is present: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept a zero amount that is present.", success)
		}

		t.Logf("\tTest 1:\tWhen fields are missing.")
		{
			err := validate.Check(newTx{Sender: &sender})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest 1:\tShould get field errors: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get field errors.", success)

			fields := validate.GetFieldErrors(err).Fields()
			if len(fields) != 2 {
				t.Logf("\t%s\tTest 1:\tgot: %v", failed, fields)
				t.Fatalf("\t%s\tTest 1:\tShould get two field errors.", failed)
			}
			if _, exists := fields["recipient"]; !exists {
				t.Fatalf("\t%s\tTest 1:\tShould use the json name for the field.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould use the json name for each missing field.", success)
		}
	}
}
