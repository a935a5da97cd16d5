package authn

import (
	"errors"
	"reflect"
	"testing"
)

func TestLedgerMerge(t *testing.T) {
	var l Ledger

	merged, err := l.Merge("acct-1", []string{"password"})
	if err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	if merged.AccountID != "acct-1" {
		t.Fatalf("got account %q, want acct-1", merged.AccountID)
	}
	if !reflect.DeepEqual(merged.AuthenticatedMethods, []string{"password"}) {
		t.Fatalf("got methods %v, want [password]", merged.AuthenticatedMethods)
	}

	merged, err = merged.Merge("acct-1", []string{"totp-challenge"})
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}
	if !reflect.DeepEqual(merged.AuthenticatedMethods, []string{"password", "totp-challenge"}) {
		t.Fatalf("got methods %v", merged.AuthenticatedMethods)
	}
}

func TestLedgerMergeIdempotent(t *testing.T) {
	l, err := Ledger{}.Merge("acct-1", []string{"password"})
	if err != nil {
		t.Fatal(err)
	}
	again, err := l.Merge("acct-1", []string{"password"})
	if err != nil {
		t.Fatalf("repeat merge failed: %v", err)
	}
	if !reflect.DeepEqual(again, l) {
		t.Fatalf("repeat merge changed ledger: %v != %v", again, l)
	}
}

// A merge targeting a different account than the one recorded must always
// fail with ErrStateConflict, whatever methods it carries. This guards the
// conflict check itself: a field mix-up comparing the wrong value would
// silently disable it.
func TestLedgerMergeAccountConflict(t *testing.T) {
	l, err := Ledger{}.Merge("acct-1", []string{"password"})
	if err != nil {
		t.Fatal(err)
	}

	for _, methods := range [][]string{nil, {"password"}, {"totp-challenge"}, {"password", "x", "y"}} {
		if _, err := l.Merge("acct-2", methods); !errors.Is(err, ErrStateConflict) {
			t.Fatalf("merge with other account and methods %v: got %v, want ErrStateConflict", methods, err)
		}
	}
	// Original ledger unchanged.
	if l.AccountID != "acct-1" || !reflect.DeepEqual(l.AuthenticatedMethods, []string{"password"}) {
		t.Fatalf("ledger mutated by failed merge: %+v", l)
	}
}

func TestLedgerMergeEmptyAccount(t *testing.T) {
	if _, err := (Ledger{}).Merge("", []string{"password"}); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("got %v, want ErrStateConflict", err)
	}
}

func TestLedgerMergeSkipsEmptyAndDuplicateMethods(t *testing.T) {
	l, err := Ledger{}.Merge("acct-1", []string{"password", "", "password", "nonce"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(l.AuthenticatedMethods, []string{"nonce", "password"}) {
		t.Fatalf("got methods %v", l.AuthenticatedMethods)
	}
}

func TestLedgerHas(t *testing.T) {
	l := Ledger{AccountID: "a", AuthenticatedMethods: []string{"password"}}
	if !l.Has("password") {
		t.Fatal("expected Has(password)")
	}
	if l.Has("totp-challenge") {
		t.Fatal("unexpected Has(totp-challenge)")
	}
}
