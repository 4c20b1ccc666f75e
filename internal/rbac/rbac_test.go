package rbac

import "testing"

func TestCan(t *testing.T) {
	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleViewer, ActionView, true},
		{RoleViewer, ActionMutate, false},
		{RoleOperator, ActionMutate, true},
		{RoleOperator, ActionReload, false},
		{RoleAdmin, ActionReload, true},
		{Role("ghost"), ActionView, false},
	}
	for _, tt := range tests {
		if got := Can(tt.role, tt.action); got != tt.want {
			t.Errorf("Can(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(""); got != RoleOperator {
		t.Fatalf("Normalize(\"\") = %q, want operator", got)
	}
	if got := Normalize("viewer"); got != RoleViewer {
		t.Fatalf("Normalize(viewer) = %q", got)
	}
}
