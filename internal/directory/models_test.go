package directory

import "testing"

func TestCase_FollowerPrefersDelegate(t *testing.T) {
	c := Case{CaseID: "c1", ClientID: "cl", ConsultantID: "co", DelegateID: "de"}
	if got := c.FollowerID(); got != "de" {
		t.Fatalf("expected delegate as follower, got %q", got)
	}

	c.DelegateID = ""
	if got := c.FollowerID(); got != "co" {
		t.Fatalf("expected consultant as follower, got %q", got)
	}
}
