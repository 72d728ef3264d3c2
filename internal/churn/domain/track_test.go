package domain

import "testing"

func TestTrackWithContract(t *testing.T) {
	want := []Step{StepRequested, StepBillingRemoved, StepTerminationSent, StepTerminationSigned}
	got := Track(true)
	if len(got) != len(want) {
		t.Fatalf("track length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("track[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTrackWithoutContract(t *testing.T) {
	got := Track(false)
	if len(got) != 2 || got[0] != StepRequested || got[1] != StepEffective {
		t.Fatalf("track = %v, want [requested effective]", got)
	}
}

func TestNextStep(t *testing.T) {
	tests := []struct {
		name        string
		hasContract bool
		current     Step
		want        Step
		ok          bool
	}{
		{"contract requested advances to billing removed", true, StepRequested, StepBillingRemoved, true},
		{"contract billing removed advances to termination sent", true, StepBillingRemoved, StepTerminationSent, true},
		{"contract termination sent advances to signed", true, StepTerminationSent, StepTerminationSigned, true},
		{"contract signed is terminal", true, StepTerminationSigned, "", false},
		{"no contract requested goes straight to effective", false, StepRequested, StepEffective, true},
		{"no contract effective is terminal", false, StepEffective, "", false},
		{"step from the other track is rejected", false, StepBillingRemoved, "", false},
		{"unknown step is rejected", true, Step("cancelled"), "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextStep(tc.hasContract, tc.current)
			if got != tc.want || ok != tc.ok {
				t.Errorf("NextStep(%v, %q) = (%q, %v), want (%q, %v)",
					tc.hasContract, tc.current, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(true, StepTerminationSigned) {
		t.Error("termination_signed must be terminal on the contract track")
	}
	if IsTerminal(true, StepTerminationSent) {
		t.Error("termination_sent is not terminal")
	}
	if !IsTerminal(false, StepEffective) {
		t.Error("effective must be terminal without a contract")
	}
	if IsTerminal(false, StepRequested) {
		t.Error("requested is never terminal")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(true, StepBillingRemoved) {
		t.Error("billing_removed belongs to the contract track")
	}
	if IsValid(false, StepTerminationSent) {
		t.Error("termination_sent does not belong to the no-contract track")
	}
}
