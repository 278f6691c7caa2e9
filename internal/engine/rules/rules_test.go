package rules

import "testing"

func TestTerminal_MatchAdvances(t *testing.T) {
	m := NewMatcher()
	c := NewCursor([]byte("hello world"))

	if !m.Match(Terminal("hello"), c) {
		t.Fatal("expected match for literal prefix")
	}
	if c.Pos != 5 {
		t.Fatalf("expected pos 5, got %d", c.Pos)
	}
}

func TestTerminal_FailureLeavesCursor(t *testing.T) {
	m := NewMatcher()

	// Mismatched prefix and too-short input both fail without movement.
	for _, input := range []string{"xyz", "hel", ""} {
		c := NewCursor([]byte(input))
		if m.Match(Terminal("hello"), c) {
			t.Fatalf("expected failure on %q", input)
		}
		if c.Pos != 0 {
			t.Fatalf("input %q: cursor moved to %d on failure", input, c.Pos)
		}
	}
}

func TestSequence_Atomicity(t *testing.T) {
	m := NewMatcher()
	seq := Sequence(Terminal("a"), Terminal("b"), Terminal("c"))
	c := NewCursor([]byte("ab"))

	if m.Match(seq, c) {
		t.Fatal("expected sequence to fail on truncated input")
	}
	if c.Pos != 0 {
		t.Fatalf("sequence leaked partial consumption: pos %d", c.Pos)
	}
}

func TestSequence_Success(t *testing.T) {
	m := NewMatcher()
	seq := Sequence(Terminal("a"), Terminal("b"), Terminal("c"))
	c := NewCursor([]byte("abcd"))

	if !m.Match(seq, c) {
		t.Fatal("expected sequence to match")
	}
	if c.Pos != 3 {
		t.Fatalf("expected pos 3, got %d", c.Pos)
	}
}

func TestChoice_FirstMatchWins(t *testing.T) {
	m := NewMatcher()
	ch := Choice(Terminal("a"), Terminal("ab"))
	c := NewCursor([]byte("ab"))

	if !m.Match(ch, c) {
		t.Fatal("expected choice to match")
	}
	// Declaration order, not longest match: "a" wins, "b" stays unconsumed.
	if c.Pos != 1 {
		t.Fatalf("expected pos 1 (first alternative), got %d", c.Pos)
	}
}

func TestChoice_AllAlternativesFail(t *testing.T) {
	m := NewMatcher()
	ch := Choice(Terminal("x"), Terminal("y"))
	c := NewCursor([]byte("ab"))

	if m.Match(ch, c) {
		t.Fatal("expected choice to fail")
	}
	if c.Pos != 0 {
		t.Fatalf("cursor moved to %d after all alternatives failed", c.Pos)
	}
}

func TestOptional_NeverFails(t *testing.T) {
	m := NewMatcher()
	opt := Optional(Terminal("x"))

	c := NewCursor([]byte("xy"))
	if !m.Match(opt, c) || c.Pos != 1 {
		t.Fatalf("expected optional to consume inner match, pos=%d", c.Pos)
	}

	c = NewCursor([]byte("ab"))
	if !m.Match(opt, c) {
		t.Fatal("optional must succeed on inner failure")
	}
	if c.Pos != 0 {
		t.Fatalf("optional consumed input on inner failure: pos %d", c.Pos)
	}
}

func TestRepeat_ZeroRepetitionsSucceeds(t *testing.T) {
	m := NewMatcher()
	c := NewCursor([]byte("bbb"))

	if !m.Match(Repeat(Terminal("a")), c) {
		t.Fatal("repeat must succeed with zero repetitions")
	}
	if c.Pos != 0 {
		t.Fatalf("expected pos 0, got %d", c.Pos)
	}
}

func TestRepeat_ConsumesAll(t *testing.T) {
	m := NewMatcher()
	c := NewCursor([]byte("aaab"))

	if !m.Match(Repeat(Terminal("a")), c) {
		t.Fatal("expected repeat to succeed")
	}
	if c.Pos != 3 {
		t.Fatalf("expected pos 3, got %d", c.Pos)
	}
}

func TestRepeat_TerminatesOnNullableInner(t *testing.T) {
	m := NewMatcher()
	// optional(terminal) succeeds with zero consumption forever; repeat
	// must detect the lack of progress and stop.
	r := Repeat(Optional(Terminal("x")))
	c := NewCursor([]byte("yyy"))

	if !m.Match(r, c) {
		t.Fatal("repeat must succeed")
	}
	if c.Pos != 0 {
		t.Fatalf("expected zero consumption, got pos %d", c.Pos)
	}
}

func TestRepeat1_RequiresOneMatch(t *testing.T) {
	m := NewMatcher()
	c := NewCursor([]byte("bbb"))

	if m.Match(Repeat1(Terminal("a")), c) {
		t.Fatal("expected repeat1 to fail with zero matches")
	}
	if c.Pos != 0 {
		t.Fatalf("expected pos 0, got %d", c.Pos)
	}

	c = NewCursor([]byte("aab"))
	if !m.Match(Repeat1(Terminal("a")), c) {
		t.Fatal("expected repeat1 to succeed")
	}
	if c.Pos != 2 {
		t.Fatalf("expected pos 2, got %d", c.Pos)
	}
}

func TestRef_ResolvesThroughTable(t *testing.T) {
	m := NewMatcher()
	m.Define("digit", Choice(Terminal("0"), Terminal("1")))

	c := NewCursor([]byte("10"))
	if !m.Match(Repeat1(Ref("digit")), c) {
		t.Fatal("expected ref-based rule to match")
	}
	if c.Pos != 2 {
		t.Fatalf("expected pos 2, got %d", c.Pos)
	}
}

func TestRef_UnknownNameFails(t *testing.T) {
	m := NewMatcher()
	c := NewCursor([]byte("abc"))

	if m.Match(Ref("missing"), c) {
		t.Fatal("expected unknown ref to fail")
	}
	if c.Pos != 0 {
		t.Fatalf("expected pos 0, got %d", c.Pos)
	}
}

func TestRecursiveGrammar(t *testing.T) {
	// expr := "(" expr ")" | "x"
	m := NewMatcher()
	m.Define("expr", Choice(
		Sequence(Terminal("("), Ref("expr"), Terminal(")")),
		Terminal("x"),
	))

	c := NewCursor([]byte("((x))"))
	if !m.Match(Ref("expr"), c) {
		t.Fatal("expected nested expression to match")
	}
	if c.Pos != 5 {
		t.Fatalf("expected pos 5, got %d", c.Pos)
	}

	c = NewCursor([]byte("((x)"))
	if m.Match(Ref("expr"), c) {
		t.Fatal("expected unbalanced expression to fail")
	}
	if c.Pos != 0 {
		t.Fatalf("expected pos 0 after failure, got %d", c.Pos)
	}
}
