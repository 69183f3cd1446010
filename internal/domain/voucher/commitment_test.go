package voucher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Commitment(t *testing.T) {
	base := CommitmentInput{
		Secret:                "secret",
		IssuerAddress:         "0xabc",
		OrgExternalID:         "acme",
		RepoExternalID:        "acme/widgets",
		PRNumber:              42,
		ContributorExternalID: "alice",
		Amount:                1000,
	}

	t.Run("deterministic", func(t *testing.T) {
		require.Equal(t, Commitment(base), Commitment(base))
	})

	t.Run("every field is bound", func(t *testing.T) {
		variants := []CommitmentInput{base, base, base, base, base, base, base}
		variants[0].Secret = "other"
		variants[1].IssuerAddress = "0xdef"
		variants[2].OrgExternalID = "globex"
		variants[3].RepoExternalID = "acme/gadgets"
		variants[4].PRNumber = 43
		variants[5].ContributorExternalID = "bob"
		variants[6].Amount = 2000

		seen := map[string]bool{Commitment(base): true}
		for _, v := range variants {
			digest := Commitment(v)
			require.False(t, seen[digest])
			seen[digest] = true
		}
	})

	t.Run("field boundaries cannot shift", func(t *testing.T) {
		a := base
		a.OrgExternalID = "acmeacme"
		a.RepoExternalID = "/widgets"

		require.NotEqual(t, Commitment(base), Commitment(a))
	})
}
