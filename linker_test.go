package liquid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLinkResolvesJump(t *testing.T) {
	b := newBuilder("<test>")
	sp := Span{}
	lEnd := b.NewLabel()
	b.Jump(lEnd, sp)
	b.WriteRaw("unreachable", sp)
	b.Label(lEnd, sp)
	b.WriteRaw("done", sp)
	prog := b.Build()

	if err := link(prog); err != nil {
		t.Fatalf("link: %v", err)
	}
	if !prog.Linked {
		t.Fatal("link did not set Linked")
	}
	want := []Instruction{
		{Op: OpJump, IntOp: 2},
		{Op: OpWriteRaw, Str: "unreachable"},
		{Op: OpNoop},
		{Op: OpWriteRaw, Str: "done"},
	}
	if diff := cmp.Diff(want, stripSpans(prog.Code), valueComparer); diff != "" {
		t.Errorf("link jump resolution mismatch (-want +got):\n%s", diff)
	}
}

func TestLinkResolvesJumpIfInterrupt(t *testing.T) {
	b := newBuilder("<test>")
	sp := Span{}
	lCont := b.NewLabel()
	lBrk := b.NewLabel()
	b.JumpIfInterrupt(lCont, lBrk, sp)
	b.Label(lCont, sp)
	b.WriteRaw("continue-target", sp)
	b.Label(lBrk, sp)
	b.WriteRaw("break-target", sp)
	prog := b.Build()

	if err := link(prog); err != nil {
		t.Fatalf("link: %v", err)
	}
	ins := prog.Code[0]
	if ins.Op != OpJumpIfInterrupt {
		t.Fatalf("expected JUMP_IF_INTERRUPT at 0, got %v", ins.Op)
	}
	if ins.IntOp != 1 {
		t.Errorf("cont label resolved to %d, want 1", ins.IntOp)
	}
	if int(ins.Label2) != 3 {
		t.Errorf("brk label resolved to %d, want 3", ins.Label2)
	}
}

func TestLinkUndefinedLabelErrors(t *testing.T) {
	b := newBuilder("<test>")
	sp := Span{}
	phantom := b.NewLabel()
	b.Jump(phantom, sp)
	prog := b.Build()

	if err := link(prog); err == nil {
		t.Fatal("expected link to fail on an undefined label")
	}
}

func TestLinkDuplicateLabelErrors(t *testing.T) {
	b := newBuilder("<test>")
	sp := Span{}
	l := b.NewLabel()
	b.Label(l, sp)
	b.Label(l, sp)
	prog := b.Build()

	if err := link(prog); err == nil {
		t.Fatal("expected link to fail on a label declared twice")
	}
}

func TestLinkForNextResolvesBothTargets(t *testing.T) {
	b := newBuilder("<test>")
	sp := Span{}
	lTop := b.NewLabel()
	lDone := b.NewLabel()
	b.ForInit(&forInitArgs{LoopName: "x", Var: "x"}, sp)
	b.Label(lTop, sp)
	b.WriteRaw("body", sp)
	b.ForNext(lTop, lDone, sp)
	b.Label(lDone, sp)
	prog := b.Build()

	if err := link(prog); err != nil {
		t.Fatalf("link: %v", err)
	}
	var next Instruction
	for _, ins := range prog.Code {
		if ins.Op == OpForNext {
			next = ins
		}
	}
	if next.IntOp != 1 {
		t.Errorf("FOR_NEXT cont resolved to %d, want 1 (loop top)", next.IntOp)
	}
	if int(next.Label2) != 4 {
		t.Errorf("FOR_NEXT brk resolved to %d, want 4 (loop exit)", next.Label2)
	}
}
